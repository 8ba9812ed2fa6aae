package network

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

var (
	ErrCookieFileMissing = errors.New("cookie file missing")
	ErrCookieFileInvalid = errors.New("cookie file invalid")
)

const httpOnlyPrefix = "#HttpOnly_"

// LoadNetscapeCookies reads a cookies.txt file in the Netscape format.
func LoadNetscapeCookies(path string) ([]*http.Cookie, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCookieFileMissing, path)
		}
		return nil, err
	}
	defer f.Close()

	return ParseNetscapeCookies(f, time.Now())
}

func ParseNetscapeCookies(r io.Reader, now time.Time) ([]*http.Cookie, error) {
	var cookies []*http.Cookie

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		httpOnly := false
		if after, ok := strings.CutPrefix(line, httpOnlyPrefix); ok {
			line = after
			httpOnly = true
		} else if strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrCookieFileInvalid, lineNo, len(fields))
		}

		expires, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d expiry: %v", ErrCookieFileInvalid, lineNo, err)
		}

		cookie := &http.Cookie{
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			Value:    fields[6],
			HttpOnly: httpOnly,
		}
		if expires > 0 {
			cookie.Expires = time.Unix(expires, 0)
			if cookie.Expires.Before(now) {
				continue
			}
		}
		cookies = append(cookies, cookie)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cookies, nil
}

// NewCookieJar seeds a public-suffix aware jar with the given cookies.
func NewCookieJar(cookies []*http.Cookie) (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	byHost := make(map[string][]*http.Cookie)
	for _, c := range cookies {
		host := strings.TrimPrefix(c.Domain, ".")
		if host == "" {
			continue
		}
		byHost[host] = append(byHost[host], c)
	}

	for host, hostCookies := range byHost {
		u := &url.URL{Scheme: "https", Host: host, Path: "/"}
		jar.SetCookies(u, hostCookies)
	}

	return jar, nil
}

// CookieFileReadable is used by the tool health check.
func CookieFileReadable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	_, err = f.Read(make([]byte, 1))
	return err == nil
}
