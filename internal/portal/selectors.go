package portal

// Selectors for the Bürgerservice appointment portal. CSS unless the
// selector starts with a slash, in which case the driver runs it as XPath.
const (
	DefaultURL = "https://egov.potsdam.de/tnv/?START_OFFICE=buergerservice"

	startButtonSel     = "button#action_officeselect_termnew_prefix1333626470"
	concernNextSel     = "button#action_concernselect_next"
	commentsNextSel    = "button#action_concerncomments_next"
	monthTableSel      = "table#monthtable%d" // two visible panels: 0 and 1
	freeDayButtonSel   = ".ekolCalendar_ButtonDayFreeX"
	dayNumberSel       = "div.ekolCalendar_DayNumberInRange"
	freeCountSel       = "div.ekolCalendar_FreeTimeContainer"
	timeSelectSel      = "#ekolcalendartimeselectbox"
	captchaImageSel    = "#cssconstants_captcha_image"
	captchaInputSel    = "#captcha_userinput"
	captchaRefreshSel  = "#captcha_newimage"
	salutationSel      = "#anrede"
	firstNameSel       = "input#vorname"
	lastNameSel        = "input#nachname"
	phoneSel           = "input#telefon"
	emailSel           = "input#email"
	userDataNextSel    = "button#action_userdata_next"
	confirmNextSel     = "button#action_confirm_next"
	resultHeadingSel   = "h1"
	bookingNumberSel   = ".ekolProcessNumber"
	okButtonXPath      = `//button[contains(normalize-space(.), "Ok")]`
	forwardButtonXPath = `//button[contains(normalize-space(.), "Vorwärts")]`

	// dayButtonXPath addresses the free-day button for one day number
	// inside one month table. Args: table index, day number.
	dayButtonXPath = `//table[@id="monthtable%d"]//button[contains(@class, "ekolCalendar_ButtonDayFreeX")][.//div[contains(@class, "ekolCalendar_DayNumberInRange") and normalize-space(text()) = "%d"]]`
)

const panelCount = 2
