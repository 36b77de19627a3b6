package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// httpClient is used for every call made to the node.
var httpClient = http.Client{
	Timeout: 30 * time.Second,
}

// call sends the request to the node and decodes the response into resp
// when provided. A response outside the 2xx range is returned as an error
// carrying the message of the node.
func call(method string, path string, body any, resp any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	url := strings.TrimSuffix(nodeURL, "/") + path

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var er struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if err := json.NewDecoder(res.Body).Decode(&er); err != nil || er.Error == "" {
			return fmt.Errorf("node responded %s", res.Status)
		}
		if len(er.Fields) > 0 {
			return fmt.Errorf("%s: %v", er.Error, er.Fields)
		}
		return fmt.Errorf("%s", er.Error)
	}

	if resp == nil {
		return nil
	}

	return json.NewDecoder(res.Body).Decode(resp)
}
