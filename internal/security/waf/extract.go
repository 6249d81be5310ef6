package waf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"sort"
	"strings"

	"github.com/kaczcards/card-show-finder-sub014/internal/security/request"
)

// rawBodyKey names the pseudo-field holding a body that is neither JSON nor a form.
const rawBodyKey = "_raw"

// maxBodyFields bounds how many flattened body fields are inspected.
const maxBodyFields = 512

type field struct {
	key   string
	value string
}

// fields holds every inspectable value of a request per location, each list
// sorted by key so evaluation order is stable.
type fields map[Location][]field

func extract(req *request.Request, cfg Config) fields {
	out := fields{
		LocationPath: {{key: "path", value: req.Path}},
	}
	if cfg.ValidateParams {
		out[LocationQuery] = queryFields(req.Query)
	}
	if cfg.ValidateHeaders {
		out[LocationHeaders] = headerFields(req)
	}
	if cfg.ValidateBody && !isBodyless(req.Method) && len(req.Body) > 0 {
		out[LocationBody] = bodyFields(req)
	}
	return out
}

func isBodyless(method string) bool {
	return method == "GET" || method == "HEAD"
}

func queryFields(q url.Values) []field {
	out := make([]field, 0, len(q))
	for k, vals := range q {
		for _, v := range vals {
			out = append(out, field{key: k, value: v})
		}
	}
	sortFields(out)
	return out
}

func headerFields(req *request.Request) []field {
	out := make([]field, 0, len(req.Header))
	for k, vals := range req.Header {
		out = append(out, field{key: strings.ToLower(k), value: strings.Join(vals, ", ")})
	}
	sortFields(out)
	return out
}

func bodyFields(req *request.Request) []field {
	var out []field
	switch ct := req.ContentType(); {
	case ct == "application/json" || strings.HasSuffix(ct, "+json"):
		out = flattenJSON(req.Body)
	case ct == "application/x-www-form-urlencoded":
		if vals, err := url.ParseQuery(string(req.Body)); err == nil {
			out = queryFields(vals)
		}
	case ct == "multipart/form-data":
		out = multipartFields(req)
	}
	if out == nil {
		// Unparseable or opaque bodies are inspected whole.
		return []field{{key: rawBodyKey, value: string(req.Body)}}
	}
	sortFields(out)
	if len(out) > maxBodyFields {
		out = out[:maxBodyFields]
	}
	return out
}

func flattenJSON(body []byte) []field {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	out := make([]field, 0, 16)
	walkJSON("", v, &out)
	return out
}

func walkJSON(prefix string, v any, out *[]field) {
	if len(*out) >= maxBodyFields {
		return
	}
	switch x := v.(type) {
	case map[string]any:
		for k, vv := range x {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			walkJSON(p, vv, out)
		}
	case []any:
		for i, vv := range x {
			walkJSON(fmt.Sprintf("%s[%d]", prefix, i), vv, out)
		}
	case string:
		*out = append(*out, field{key: prefix, value: x})
	case nil:
	default:
		*out = append(*out, field{key: prefix, value: fmt.Sprint(x)})
	}
}

func multipartFields(req *request.Request) []field {
	_, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil || params["boundary"] == "" {
		return nil
	}
	mr := multipart.NewReader(bytes.NewReader(req.Body), params["boundary"])
	out := []field{}
	for len(out) < maxBodyFields {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		name := part.FormName()
		if name == "" || part.FileName() != "" {
			_ = part.Close()
			continue
		}
		b, err := io.ReadAll(io.LimitReader(part, 64<<10))
		_ = part.Close()
		if err != nil {
			break
		}
		out = append(out, field{key: name, value: string(b)})
	}
	return out
}

func sortFields(fs []field) {
	sort.SliceStable(fs, func(i, j int) bool { return fs[i].key < fs[j].key })
}
