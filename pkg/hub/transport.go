package hub

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LoggingTransport logs each request and its outcome at debug level.
type LoggingTransport struct {
	Transport http.RoundTripper
	Log       *logrus.Entry
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.Log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return t.Transport.RoundTrip(req)
	}

	t.Log.Debugf("requesting url: %s", req.URL.String())

	if len(req.Header) > 0 {
		var headers []string
		for k, v := range req.Header {
			switch k {
			case "User-Agent":
			case "Authorization":
				headers = append(headers, k+": <redacted>")
			default:
				headers = append(headers, fmt.Sprintf("%s: %s", k, strings.Join(v, ", ")))
			}
		}
		if len(headers) > 0 {
			t.Log.Debugf("request headers: %s", strings.Join(headers, " | "))
		}
	}

	start := time.Now()
	resp, err := t.Transport.RoundTrip(req)

	if err != nil {
		t.Log.Debugf("encountered an error with %s: %v", req.URL.Host, err)
		return resp, err
	}

	t.Log.Debugf("response for %s: status code %d in %v", req.URL.String(), resp.StatusCode, time.Since(start))
	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		t.Log.Debugf("response content-type: %s", contentType)
	}
	if resp.StatusCode >= 400 {
		t.Log.Debugf("unexpected status code %d received from %s", resp.StatusCode, req.URL.String())
	}

	return resp, err
}
