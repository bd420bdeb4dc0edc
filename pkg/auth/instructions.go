package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCookieGuide writes step-by-step instructions for copying the session
// cookies out of a logged-in browser
func ShowCookieGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	lines := []string{
		rule,
		"INSTAGRAM SESSION COOKIES",
		rule,
		"",
		"Comments are read with the session of a logged-in browser.",
		"",
		"1. Open https://www.instagram.com and log in.",
		"2. Open the developer tools (F12, or Cmd+Option+I on macOS).",
		"3. Go to Application > Cookies (Chrome) or Storage > Cookies (Firefox)",
		"   and select https://www.instagram.com.",
		"4. Copy the values of these cookies:",
		"",
		"   sessionid   long string containing %3A, e.g. 12345678%3Aabcdef...",
		"   csrftoken   about 32 characters, e.g. YTQHujAgMhyveLvvuwCfw9CPI8ROAHoy",
		"",
		"Copy everything after the = sign, without quotes or semicolons.",
		"The cookies expire; run the login again when collection reports an auth error.",
		"",
		"These cookies give full access to the account. Never share them.",
		rule,
		"",
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

// ShowQuickGuide writes the commands to run after a successful login
func ShowQuickGuide(w io.Writer, username string) {
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintln(w, "  igcomments collect --post https://www.instagram.com/p/<shortcode>/")
	fmt.Fprintf(w, "  igcomments collect --post <url> --account %s\n", username)
	fmt.Fprintln(w, "  igcomments show")
}
