package fetch

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot block detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// Challenge-page markers, matched against a lowercased body. Requests
// advertise Accept-Language it-IT, so Italian sites serve localized
// interstitials; the Italian phrases cover those alongside the English
// defaults.
var challengeMarkers = []string{
	"checking your browser",
	"cf-browser-verification",
	"cf-turnstile",
	"verifica di essere un umano",
	"conferma di essere una persona",
	"controllo di sicurezza in corso",
}

var captchaMarkers = []string{
	"captcha", // covers recaptcha and hcaptcha widget markup too
	"non sono un robot",
	"dimostra di non essere un robot",
}

// responses under this size with no real content are treated as
// JS-rendered shells
const jsShellMaxBytes = 2000

// DetectBlock classifies a response as anti-bot protection. Header
// evidence is checked before body markers; the JS-shell heuristic runs
// last because small legitimate pages exist.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}
	if cloudflareDenied(resp) {
		return true, BlockCloudflare
	}

	lower := strings.ToLower(string(body))
	for _, m := range challengeMarkers {
		if strings.Contains(lower, m) {
			return true, BlockCloudflare
		}
	}
	if strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge") {
		return true, BlockCloudflare
	}
	for _, m := range captchaMarkers {
		if strings.Contains(lower, m) {
			return true, BlockCaptcha
		}
	}

	if len(body) < jsShellMaxBytes {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, `http-equiv="refresh"`) {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}

// cloudflareDenied reports whether the status and headers look like a
// Cloudflare deny or challenge rather than an origin error.
func cloudflareDenied(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable:
	default:
		return false
	}
	for _, h := range []string{"cf-ray", "cf-mitigated", "cf-cache-status"} {
		if resp.Header.Get(h) != "" {
			return true
		}
	}
	return strings.HasPrefix(strings.ToLower(resp.Header.Get("server")), "cloudflare")
}
