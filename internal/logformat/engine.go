// Package logformat implements the format-directed tokenizer and field
// extractors: the directive engine that turns one raw log line into a
// logitem.Item given a compiled format, plus the JSON directive engine
// variant.
package logformat

import (
	"fmt"
	"time"

	"accessparse/internal/logitem"
	"accessparse/internal/runtimestate"
)

// Options bundles the per-run configuration ParseLine needs. It is a
// narrower view of config.Context — logformat does not import config to
// avoid a dependency from the leaf parsing package back up to the
// configuration layer; callers (internal/pipeline) translate.
type Options struct {
	DateFormat     string
	TimeFormat     string
	DateNumFormat  string
	DoubleDecode   bool
	NoIPValidation bool
	NoStrictStatus bool
	StartTime      time.Time
	IsValidStatus  func(int) bool
	State          *runtimestate.State
}

// ParseLine runs the compiled directive sequence over line, producing an
// Item. It returns an error from the errors.go sentinel set on the first
// directive failure.
// It does not enforce the Host/Date/Req-required invariant; that check
// belongs to the line classifier, which runs after a successful
// parse.
func ParseLine(dirs []Directive, line string, opt Options) (*logitem.Item, error) {
	item := logitem.New(opt.StartTime)
	if err := ParseInto(item, dirs, line, opt); err != nil {
		return nil, err
	}
	return item, nil
}

// ParseInto runs the compiled directive sequence over line, populating an
// already-existing item rather than allocating a new one. The JSON
// directive engine uses this to accumulate fields from several per-key
// subformat invocations onto one Item.
func ParseInto(item *logitem.Item, dirs []Directive, line string, opt Options) error {
	pos := 0

	for _, d := range dirs {
		switch d.Kind {
		case KindLiteral:
			pos = matchLiteral(line, pos, d.Literal)

		case KindSkipSpace:
			pos = skipLeadingSpace(line, pos)

		case KindDate:
			count := 1
			if !d.DelimEOL && d.Delim == ' ' {
				count = dateDelimCount(opt.DateFormat, line, pos)
			}
			token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, count)
			if err != nil {
				return fmt.Errorf("directive %%d: %w", err)
			}
			pos = newPos
			if item.Date == "" {
				dateStr, numDate, dt, err := ParseDate(token, opt.DateFormat, opt.DateNumFormat)
				if err != nil {
					return err
				}
				item.Date = dateStr
				item.NumDate = numDate
				item.DT = dt
			}

		case KindTime:
			token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
			if err != nil {
				return fmt.Errorf("directive %%t: %w", err)
			}
			pos = newPos
			if item.Time == "" {
				timeStr, dt, err := ParseTime(token, opt.TimeFormat, item.DT)
				if err != nil {
					return err
				}
				item.Time = timeStr
				item.DT = dt
			}

		case KindTimestamp:
			token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
			if err != nil {
				return fmt.Errorf("directive %%x: %w", err)
			}
			pos = newPos
			if item.Date == "" {
				combinedFmt := opt.DateFormat + " " + opt.TimeFormat
				dateStr, numDate, dt, err := ParseDate(token, combinedFmt, opt.DateNumFormat)
				if err == nil {
					item.Date = dateStr
					item.NumDate = numDate
					item.DT = dt
					item.Time = dt.Format("15:04:05")
				}
			}

		case KindVHost:
			pos = setOptionalString(&item.VHost, line, pos, d, opt)
		case KindUserID:
			pos = setOptionalString(&item.UserID, line, pos, d, opt)

		case KindCacheStatus:
			token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
			if err != nil {
				return fmt.Errorf("directive %%C: %w", err)
			}
			pos = newPos
			if item.CacheStatus == nil {
				if v, ok := MatchCacheStatus(token); ok {
					item.CacheStatus = &v
				}
			}

		case KindHost:
			newPos, err := parseHostDirective(item, line, pos, d, opt)
			if err != nil {
				return err
			}
			pos = newPos

		case KindMethod:
			token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
			if err != nil {
				return fmt.Errorf("directive %%m: %w", err)
			}
			pos = newPos
			if item.Method == "" {
				if m, ok := MatchMethod(token); ok {
					item.Method = m
				} else if token != "" {
					return fmt.Errorf("directive %%m: %w", ErrTokenInvalid)
				}
			}

		case KindURL:
			token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
			if err != nil {
				return fmt.Errorf("directive %%U: %w", err)
			}
			pos = newPos
			if item.Req == "" {
				if decoded, ok := DecodeURL(token, opt.DoubleDecode); ok {
					item.Req = decoded
				} else {
					item.Req = "-"
				}
			}

		case KindQStr:
			pos = setOptionalString(&item.QStr, line, pos, d, opt)

		case KindProtocol:
			token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
			if err != nil {
				return fmt.Errorf("directive %%H: %w", err)
			}
			pos = newPos
			if item.Protocol == "" {
				if p, ok := MatchProtocol(token); ok {
					item.Protocol = p
				} else if token != "" {
					return fmt.Errorf("directive %%H: %w", ErrTokenInvalid)
				}
			}

		case KindRequestLine:
			token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
			if err != nil {
				return fmt.Errorf("directive %%r: %w", err)
			}
			pos = newPos
			if item.Req == "" {
				method, req, protocol := ParseRequestLine(token)
				if method != "" {
					item.Method = method
				}
				if protocol != "" {
					item.Protocol = protocol
				}
				if req != "-" {
					if decoded, ok := DecodeURL(req, opt.DoubleDecode); ok {
						item.Req = decoded
					} else {
						item.Req = "-"
					}
				} else {
					item.Req = "-"
				}
			}

		case KindStatus:
			token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
			if err != nil {
				return fmt.Errorf("directive %%s: %w", err)
			}
			pos = newPos
			if item.Status == -1 {
				n, ok := ParseStatus(token, opt.NoStrictStatus, opt.IsValidStatus)
				if !ok {
					return fmt.Errorf("directive %%s: %w", ErrTokenInvalid)
				}
				item.Status = n
			}

		case KindBytes:
			token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
			if err != nil {
				return fmt.Errorf("directive %%b: %w", err)
			}
			pos = newPos
			if item.RespSize == 0 {
				n := ParseBytes(token)
				item.RespSize = n
				if n > 0 && opt.State != nil {
					runtimestate.SetOnce(&opt.State.BandwidthSeen)
				}
			}

		case KindReferer:
			token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
			if err != nil {
				return fmt.Errorf("directive %%R: %w", err)
			}
			pos = newPos
			if item.Ref == nil {
				if decoded, ok := DecodeURL(token, opt.DoubleDecode); ok {
					item.Ref = &decoded
					site := ExtractRefererSite(decoded)
					if site != "" {
						item.Site = &site
					}
					if kp, ok := ExtractKeyphrase(decoded); ok {
						item.Keyphrase = &kp
					}
				}
			}

		case KindAgent:
			token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
			if err != nil {
				return fmt.Errorf("directive %%u: %w", err)
			}
			pos = newPos
			if item.Agent == "" {
				if decoded, ok := DecodeURL(token, opt.DoubleDecode); ok {
					item.Agent = decoded
				}
			}

		case KindServeMillis, KindServeSeconds, KindServeMicros, KindServeNanos:
			newPos, err := parseServeTimeDirective(item, line, pos, d, opt)
			if err != nil {
				return err
			}
			pos = newPos

		case KindTLSCipher:
			token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
			if err != nil {
				return fmt.Errorf("directive %%k: %w", err)
			}
			pos = newPos
			if item.TLSCypher == nil {
				if name, resolved := ResolveCipher(token); resolved {
					item.TLSCypher = &name
				} else {
					item.TLSCypher = &token
				}
			}

		case KindTLSType:
			pos = setOptionalString(&item.TLSType, line, pos, d, opt)

		case KindMime:
			token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
			if err != nil {
				return fmt.Errorf("directive %%M: %w", err)
			}
			pos = newPos
			if item.MimeType == nil {
				normalized := NormalizeMime(token)
				item.MimeType = &normalized
			}

		case KindDiscard:
			_, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
			if err != nil {
				return fmt.Errorf("directive %%^: %w", err)
			}
			pos = newPos
		}
	}

	return nil
}

func setOptionalString(field **string, line string, pos int, d Directive, opt Options) int {
	token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
	if err != nil {
		return pos
	}
	if *field == nil && token != "" {
		decoded, ok := DecodeURL(token, opt.DoubleDecode)
		if ok {
			*field = &decoded
		}
	}
	return newPos
}

func parseHostDirective(item *logitem.Item, line string, pos int, d Directive, opt Options) (int, error) {
	if d.RejectSet != "" {
		token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
		if err != nil {
			return pos, fmt.Errorf("directive %%{%s}h: %w", d.RejectSet, err)
		}
		if item.Host == "" {
			host, kind, found := ParseXFF(token, d.RejectSet)
			if found {
				item.Host = host
				item.TypeIP = kind
			}
		}
		return newPos, nil
	}

	if bracketed, newPos, ok := ExtractHostToken(line, pos); ok {
		if item.Host == "" {
			if opt.NoIPValidation {
				item.Host = bracketed
				item.TypeIP = logitem.TypeIPv6
			} else {
				kind, err := ValidateIP(bracketed)
				if err != nil {
					return pos, fmt.Errorf("directive %%h: %w", ErrTokenInvalid)
				}
				item.Host = bracketed
				item.TypeIP = kind
			}
		}
		// A bracketed host may still be followed by ":port" before the
		// configured delimiter; skip forward to the next occurrence of the
		// delimiter (or EOL) the same way the duplicate-directive policy
		// advances input.
		_, afterPos, _ := nextToken(line, newPos, d.Delim, d.DelimEOL, 1)
		if afterPos > newPos {
			return afterPos, nil
		}
		return newPos, nil
	}

	token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
	if err != nil {
		return pos, fmt.Errorf("directive %%h: %w", err)
	}
	if item.Host == "" {
		if opt.NoIPValidation {
			item.Host = token
		} else {
			kind, err := ValidateIP(token)
			if err != nil {
				return newPos, fmt.Errorf("directive %%h: %w", ErrTokenInvalid)
			}
			item.Host = token
			item.TypeIP = kind
		}
	}
	return newPos, nil
}

func parseServeTimeDirective(item *logitem.Item, line string, pos int, d Directive, opt Options) (int, error) {
	token, newPos, err := nextToken(line, pos, d.Delim, d.DelimEOL, 1)
	if err != nil {
		return pos, fmt.Errorf("directive serve-time: %w", err)
	}
	if item.ServeTime != 0 {
		return newPos, nil
	}
	us := parseServeTimeToken(d.Kind, token)
	if us > 0 {
		item.ServeTime = us
		if opt.State != nil {
			runtimestate.SetOnce(&opt.State.ServeUsecsSeen)
		}
	}
	return newPos, nil
}
