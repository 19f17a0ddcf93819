package sanitizer

import (
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	emailPipeline = Pipeline{strings.TrimSpace, strings.ToLower}
	namePipeline  = Pipeline{TrimAndNormalize}
	notesPipeline = Pipeline{
		func(s string) string { return strings.ReplaceAll(s, "\r\n", "\n") },
		strings.TrimSpace,
	}
)

func SanitizeEmail(email string) string {
	return emailPipeline.Apply(email)
}

func SanitizeName(name string) string {
	return namePipeline.Apply(name)
}

func SanitizeNotes(notes string) string {
	return notesPipeline.Apply(notes)
}

func SanitizePhone(phone string) string {
	return NormalizePhone(phone)
}
