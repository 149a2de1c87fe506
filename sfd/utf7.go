package sfd

import (
	"encoding/base64"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// decodeUTF7 decodes the UTF-7 strings FontForge writes for naming table
// entries ("+" starts a base64 run of UTF-16BE code units, "-" ends it).
func decodeUTF7(s string) (string, error) {
	if !strings.Contains(s, "+") {
		return s, nil
	}
	dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	var sb strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c != '+' {
			sb.WriteByte(c)
			i++
			continue
		}
		i++
		if i < len(s) && s[i] == '-' {
			sb.WriteByte('+')
			i++
			continue
		}
		j := i
		for j < len(s) && isBase64(s[j]) {
			j++
		}
		run := s[i:j]
		if len(run)%4 == 1 { // cannot hold a full byte
			run = run[:len(run)-1]
		}
		raw, err := base64.RawStdEncoding.DecodeString(run)
		if err != nil {
			return "", err
		}
		raw = raw[:len(raw)&^1]
		u, err := dec.Bytes(raw)
		if err != nil {
			return "", err
		}
		sb.Write(u)
		i = j
		if i < len(s) && s[i] == '-' {
			i++
		}
	}
	return sb.String(), nil
}

func isBase64(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '+' || c == '/'
}
