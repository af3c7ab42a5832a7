package lockdown

import (
	"crypto/hmac"

	"github.com/zaqqye/seb_exam_gate/internal/utils"
)

// RequestHashHeader is set by Safe Exam Browser on every request.
const RequestHashHeader = "X-SafeExamBrowser-RequestHash"

// Fingerprint returns the request hash SEB is expected to send for the given
// page when configured with secret.
func Fingerprint(homeURL, requestPath, secret string) string {
	return utils.SHA256Hex(homeURL + requestPath + secret)
}

// Verify reports whether supplied matches the fingerprint of the request.
// An empty secret means the course has no lockdown key and always passes.
func Verify(homeURL, requestPath, secret, supplied string) bool {
	if secret == "" {
		return true
	}
	expected := Fingerprint(homeURL, requestPath, secret)
	return hmac.Equal([]byte(expected), []byte(supplied))
}
