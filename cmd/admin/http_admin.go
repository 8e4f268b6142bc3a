package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

func stateCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("state", flag.ContinueOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	return call(out, http.MethodGet, *baseURL, "/v1/state", 5*time.Second)
}

// saveCmd asks a running server to persist now.
func saveCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	return call(out, http.MethodPost, *baseURL, "/admin/v1/save", 10*time.Second)
}

func call(out io.Writer, method, baseURL, path string, timeout time.Duration) error {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/") + path
	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		return err
	}
	cl := &http.Client{Timeout: timeout}
	resp, err := cl.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Fprintln(out, strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	return nil
}
