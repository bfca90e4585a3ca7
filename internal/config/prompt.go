package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Flags carries the CLI values relevant to configuration ingestion.
type Flags struct {
	FOA       string
	FirstName string
	LastName  string
	Phone     string
	Email     string

	// Requests are repeated ID=N flag values.
	Requests []string

	NoInteractive bool

	// RequestCatalog is the path of the id -> display name JSON used by
	// the interactive request picker.
	RequestCatalog string
}

// FromPrompts builds a Config from flags, environment fallbacks and, unless
// non-interactive, stdin prompts. The weekday schedule defaults to fully
// open; use a config file to restrict it.
func FromPrompts(fl Flags, in io.Reader, out io.Writer) (Config, error) {
	cfg := Config{
		Schedule: OpenAllDays(),
	}
	sc := bufio.NewScanner(in)

	if !fl.NoInteractive {
		fmt.Fprintln(out, "Please enter your personal data:")
	}

	foa, err := askField(sc, out, fl.NoInteractive, "--foa", "FOA", fl.FOA,
		"Form of address (herr, frau, x, firma): ", func(s string) (string, bool) {
			parsed, ok := ParseSalutation(s)
			return string(parsed), ok
		})
	if err != nil {
		return Config{}, err
	}
	cfg.Personal.FOA = Salutation(foa)

	for _, f := range []struct {
		flag, env, val, prompt string
		dst                    *string
	}{
		{"--first-name", "FIRST_NAME", fl.FirstName, "First name: ", &cfg.Personal.FirstName},
		{"--last-name", "LAST_NAME", fl.LastName, "Last name: ", &cfg.Personal.LastName},
		{"--phone", "PHONE", fl.Phone, "Phone number: ", &cfg.Personal.Phone},
		{"--email", "EMAIL", fl.Email, "Email address: ", &cfg.Personal.Email},
	} {
		v, err := askField(sc, out, fl.NoInteractive, f.flag, f.env, f.val, f.prompt, nonEmpty)
		if err != nil {
			return Config{}, err
		}
		*f.dst = v
	}

	if fl.NoInteractive || len(fl.Requests) > 0 {
		reqs, err := parseRequestFlags(fl.Requests)
		if err != nil {
			return Config{}, err
		}
		cfg.Requests = reqs
	} else {
		reqs, err := pickRequests(sc, out, fl.RequestCatalog)
		if err != nil {
			return Config{}, err
		}
		cfg.Requests = reqs
	}

	return cfg, nil
}

func nonEmpty(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// askField resolves one personal field: flag value first, environment
// variable second, interactive prompt last. In non-interactive mode a
// missing field is fatal and names both sources.
func askField(sc *bufio.Scanner, out io.Writer, noInteractive bool,
	flag, env, val, prompt string, check func(string) (string, bool)) (string, error) {

	if val == "" {
		val = os.Getenv(env)
	}
	if v, ok := check(val); ok {
		fmt.Fprintf(out, "%s%s\n", prompt, v)
		return v, nil
	}
	if noInteractive {
		return "", &Error{Violations: []string{fmt.Sprintf(
			"--no-interactive requires a value for %s; pass it via the %s flag or the %s environment variable", flag, flag, env)}}
	}
	for {
		fmt.Fprint(out, prompt)
		if !sc.Scan() {
			return "", &Error{Violations: []string{"input closed while prompting for " + flag}}
		}
		if v, ok := check(sc.Text()); ok {
			return v, nil
		}
		fmt.Fprintln(out, "Invalid value. Please try again.")
	}
}

func parseRequestFlags(raw []string) ([]Request, error) {
	if len(raw) == 0 {
		return nil, &Error{Violations: []string{"no request types specified; pass --request ID=N at least once"}}
	}
	var reqs []Request
	var v violations
	for _, r := range raw {
		id, num, ok := strings.Cut(r, "=")
		n, err := strconv.Atoi(num)
		if !ok || id == "" || err != nil || n < 1 {
			v.addf("--request %q: want ID=N with N at least 1", r)
			continue
		}
		reqs = append(reqs, Request{ID: id, People: n})
	}
	if len(v) > 0 {
		return nil, &Error{Violations: v}
	}
	return reqs, nil
}

// pickRequests runs the interactive service-item picker over the catalog
// file, one item per round, with a confirmation step like every other
// prompt in this flow.
func pickRequests(sc *bufio.Scanner, out io.Writer, catalogPath string) ([]Request, error) {
	if catalogPath == "" {
		catalogPath = "request-types.json"
	}
	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, &Error{Violations: []string{fmt.Sprintf("read request catalog %s: %v", catalogPath, err)}}
	}
	var catalog map[string]string
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, &Error{Violations: []string{fmt.Sprintf("parse request catalog %s: %v", catalogPath, err)}}
	}

	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	chosen := map[string]int{}
	var order []string
	for {
		fmt.Fprintln(out, "Please select the type of request you would like to add:")
		for i, id := range ids {
			if _, taken := chosen[id]; taken {
				continue
			}
			fmt.Fprintf(out, "\t%2d: %s\n", i+1, catalog[id])
		}

		id, people, ok := readPick(sc, out, ids, chosen)
		if !ok {
			break
		}
		fmt.Fprintf(out, "You have selected: %q for %d people\n", catalog[id], people)
		if !askYesNo(sc, out, "Is this correct? (y/n): ") {
			continue
		}
		chosen[id] = people
		order = append(order, id)

		if !askYesNo(sc, out, "Would you like to add another request? (y/n): ") {
			break
		}
	}

	if len(order) == 0 {
		return nil, &Error{Violations: []string{"no request types selected"}}
	}
	reqs := make([]Request, 0, len(order))
	for _, id := range order {
		reqs = append(reqs, Request{ID: id, People: chosen[id]})
	}
	return reqs, nil
}

func readPick(sc *bufio.Scanner, out io.Writer, ids []string, taken map[string]int) (string, int, bool) {
	for {
		fmt.Fprint(out, "Enter the number of the request type: ")
		if !sc.Scan() {
			return "", 0, false
		}
		i, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
		if err != nil || i < 1 || i > len(ids) {
			fmt.Fprintln(out, "Invalid input. Please try again.")
			continue
		}
		id := ids[i-1]
		if _, dup := taken[id]; dup {
			fmt.Fprintln(out, "Already selected. Please pick another.")
			continue
		}

		fmt.Fprint(out, "Enter the number of people: ")
		if !sc.Scan() {
			return "", 0, false
		}
		n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
		if err != nil || n < 1 {
			fmt.Fprintln(out, "Invalid input. Please try again.")
			continue
		}
		return id, n, true
	}
}

func askYesNo(sc *bufio.Scanner, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	if !sc.Scan() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(sc.Text()), "y")
}
