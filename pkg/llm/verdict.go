package llm

import (
	"strings"

	"github.com/go-faster/jx"

	"domaincheck/pkg/serrors"
)

// Verdict is the classifier's answer for a single domain, extracted from
// model output.
type Verdict struct {
	// Domain is the domain the verdict is about, when the model echoed it.
	Domain string
	// Answer is the raw Yes/No field.
	Answer string
	// Detail carries the source URL for affirmative verdicts and the
	// model's explanation for negative ones.
	Detail string
}

// Affirmative reports whether the model answered yes.
func (v Verdict) Affirmative() bool {
	return strings.EqualFold(strings.TrimSpace(v.Answer), "yes")
}

// ParseVerdict extracts a Verdict from raw model output. Models wrap their
// JSON in code fences and prose more often than not, so the parser cuts the
// output down to the outermost JSON value first and then accepts either the
// ["domain", "Yes/No", "detail"] array form or an object with
// answer/source/reason keys. Anything it cannot make sense of comes back as
// serrors.ErrMalformedOutput.
func ParseVerdict(raw string) (Verdict, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return Verdict{}, serrors.With(serrors.ErrMalformedOutput, "no JSON value in output: %q", clip(raw))
	}

	d := jx.DecodeStr(payload)

	var v Verdict
	var err error
	switch d.Next() {
	case jx.Array:
		v, err = parseArrayVerdict(d)
	case jx.Object:
		v, err = parseObjectVerdict(d)
	default:
		return Verdict{}, serrors.With(serrors.ErrMalformedOutput, "unexpected JSON value in output: %q", clip(raw))
	}
	if err != nil {
		return Verdict{}, serrors.Wrap(serrors.ErrMalformedOutput, err, "could not parse verdict: %q", clip(raw))
	}
	if v.Answer == "" {
		return Verdict{}, serrors.With(serrors.ErrMalformedOutput, "no Yes/No answer in output: %q", clip(raw))
	}

	return v, nil
}

// parseArrayVerdict reads the ["domain", "Yes/No", "detail"] form. Non-string
// elements are skipped rather than rejected.
func parseArrayVerdict(d *jx.Decoder) (Verdict, error) {
	var fields []string
	if err := d.Arr(func(d *jx.Decoder) error {
		if d.Next() != jx.String {
			fields = append(fields, "")

			return d.Skip()
		}
		s, err := d.Str()
		if err != nil {
			return err
		}
		fields = append(fields, s)

		return nil
	}); err != nil {
		return Verdict{}, err
	}

	var v Verdict
	switch {
	case len(fields) >= 3:
		v = Verdict{Domain: fields[0], Answer: fields[1], Detail: fields[2]}
	case len(fields) == 2:
		v = Verdict{Domain: fields[0], Answer: fields[1]}
	}

	return v, nil
}

// parseObjectVerdict reads the object form, tolerating the key spellings
// different prompts produce.
func parseObjectVerdict(d *jx.Decoder) (Verdict, error) {
	var v Verdict
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if d.Next() != jx.String {
			return d.Skip()
		}
		s, err := d.Str()
		if err != nil {
			return err
		}
		switch strings.ToLower(key) {
		case "domain":
			v.Domain = s
		case "answer", "related", "is_related", "isvisitable", "valid":
			v.Answer = s
		case "source", "source_url", "url", "evidence":
			if v.Detail == "" {
				v.Detail = s
			}
		case "reason", "explanation":
			v.Detail = s
		}

		return nil
	})

	return v, err
}

// extractJSON cuts model output down to the outermost JSON array or object,
// dropping code fences and surrounding prose.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}

	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return ""
	}
	var end int
	if s[start] == '[' {
		end = strings.LastIndexByte(s, ']')
	} else {
		end = strings.LastIndexByte(s, '}')
	}
	if end <= start {
		return ""
	}

	return s[start : end+1]
}

// clip shortens raw output for error messages.
func clip(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}

	return s[:max] + "..."
}
