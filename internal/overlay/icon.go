package overlay

import "strings"

// ResolveIcon maps an icon identifier to a Font Awesome class string.
// Identifiers that already carry an fa- class only get the fixed-width
// modifier; bare names are taken from the solid family.
func ResolveIcon(icon string) string {
	if icon == "" {
		return ""
	}
	if strings.Contains(icon, "fa-") {
		return "fa-fw " + icon
	}
	return "fa-fw fa-solid fa-" + icon
}
