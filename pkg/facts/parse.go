// Package facts gathers device state into a Snapshot by scraping the
// management pages. The firmwares render forms with static attribute
// ordering, so targeted regular expressions are reliable here and keep
// the package free of a DOM dependency. A field that fails to parse
// degrades to its zero value and is recorded as a snapshot warning;
// only transport failures abort gathering.
package facts

import (
	"fmt"
	"regexp"
	"strings"
)

// inputTag finds the full <input> tag with the given name attribute.
func inputTag(body, name string) (string, bool) {
	re := regexp.MustCompile(`(?i)<input\b[^>]*\bname="` + regexp.QuoteMeta(name) + `"[^>]*>`)
	m := re.FindString(body)
	if m == "" {
		return "", false
	}
	return m, true
}

var valueAttrRe = regexp.MustCompile(`\bvalue="([^"]*)"`)

// FieldPresent reports whether the page carries a form field with the
// given name, input or select.
func FieldPresent(body, name string) bool {
	if _, ok := inputTag(body, name); ok {
		return true
	}
	re := regexp.MustCompile(`(?i)<select\b[^>]*\bname="` + regexp.QuoteMeta(name) + `"`)
	return re.MatchString(body)
}

// InputValue returns the value attribute of the named input field.
func InputValue(body, name string) (string, bool) {
	tag, ok := inputTag(body, name)
	if !ok {
		return "", false
	}
	m := valueAttrRe.FindStringSubmatch(tag)
	if m == nil {
		return "", true
	}
	return m[1], true
}

// CheckboxChecked reports whether the checkbox with the given name and
// value renders checked. Checkbox groups share a name and distinguish
// rows by value.
func CheckboxChecked(body, name, value string) bool {
	re := regexp.MustCompile(`(?i)<input\b[^>]*\bname="` + regexp.QuoteMeta(name) +
		`"[^>]*\bvalue="` + regexp.QuoteMeta(value) + `"[^>]*>`)
	tag := re.FindString(body)
	return tag != "" && strings.Contains(strings.ToLower(tag), "checked")
}

var optionTagRe = regexp.MustCompile(`(?i)<option\b[^>]*>`)

// SelectedOption returns the value of the selected option of the named
// select, or the empty string when nothing is marked selected.
func SelectedOption(body, name string) (string, bool) {
	re := regexp.MustCompile(`(?is)<select\b[^>]*\bname="` + regexp.QuoteMeta(name) +
		`"[^>]*>(.*?)</select>`)
	m := re.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	for _, opt := range optionTagRe.FindAllString(m[1], -1) {
		if !strings.Contains(strings.ToLower(opt), "selected") {
			continue
		}
		if v := valueAttrRe.FindStringSubmatch(opt); v != nil {
			return v[1], true
		}
	}
	return "", true
}

// InputsMatching collects every input whose name matches the pattern,
// keyed by name. Read-modify-write forms use this to carry sibling
// fields back unchanged.
func InputsMatching(body, pattern string) map[string]string {
	re := regexp.MustCompile(`(?i)<input\b[^>]*\bname="(` + pattern + `)"[^>]*>`)
	out := make(map[string]string)
	for _, m := range re.FindAllStringSubmatch(body, -1) {
		value := ""
		if v := valueAttrRe.FindStringSubmatch(m[0]); v != nil {
			value = v[1]
		}
		out[m[1]] = value
	}
	return out
}

// SelectsMatching collects the selected option of every select whose
// name matches the pattern, keyed by name.
func SelectsMatching(body, pattern string) map[string]string {
	re := regexp.MustCompile(`(?is)<select\b[^>]*\bname="(` + pattern + `)"[^>]*>(.*?)</select>`)
	out := make(map[string]string)
	for _, m := range re.FindAllStringSubmatch(body, -1) {
		value := ""
		for _, opt := range optionTagRe.FindAllString(m[2], -1) {
			if !strings.Contains(strings.ToLower(opt), "selected") {
				continue
			}
			if v := valueAttrRe.FindStringSubmatch(opt); v != nil {
				value = v[1]
			}
			break
		}
		out[m[1]] = value
	}
	return out
}

// TableRowValue extracts the cell following the labelled cell of an
// information table, the layout the system status pages use.
func TableRowValue(body, label string) (string, bool) {
	re := regexp.MustCompile(`(?is)>\s*` + regexp.QuoteMeta(label) +
		`\s*:?\s*</t[dh]>\s*<td[^>]*>\s*([^<]*?)\s*</td>`)
	m := re.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// warnf appends a formatted parse warning to a snapshot warning list.
func warnf(warnings *[]string, format string, args ...interface{}) {
	*warnings = append(*warnings, fmt.Sprintf(format, args...))
}
