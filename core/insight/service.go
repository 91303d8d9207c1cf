package insight

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shikkhaloy/shikkhaloy/core"
	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/student"
)

var ErrNotConfigured = errors.New("insight generator not configured")

type (
	// Generator turns a prompt into generated text.
	Generator interface {
		Generate(ctx context.Context, prompt string) (string, error)
	}

	Service interface {
		// StudentInsight never fails: any generator error yields the localized fallback text.
		StudentInsight(ctx context.Context, s student.Student, lang i18n.Language) string
	}

	service struct {
		gen    Generator
		logger core.Logger
	}
)

var _ Service = (*service)(nil) // interface compliance check

// NewService accepts a nil Generator; every insight is then the fallback text.
func NewService(gen Generator, logger core.Logger) Service {
	return &service{gen: gen, logger: logger}
}

func (svc *service) StudentInsight(ctx context.Context, s student.Student, lang i18n.Language) string {
	if !lang.IsValid() {
		lang = i18n.Default
	}
	if svc.gen == nil {
		svc.logger.Warn(fmt.Sprintf("student insight: %v", ErrNotConfigured))
		return i18n.M(lang).InsightFallback
	}

	text, err := svc.gen.Generate(ctx, Prompt(s, lang))
	if err != nil {
		svc.logger.Error(fmt.Sprintf("student insight: %v", err), err)
		return i18n.M(lang).InsightFallback
	}
	if text = strings.TrimSpace(text); text == "" {
		return i18n.M(lang).InsightFallback
	}
	return text
}

// Prompt asks for a short encouraging performance report, written in `lang`.
func Prompt(s student.Student, lang i18n.Language) string {
	grade := s.Grade.String
	if !s.Grade.Valid {
		grade = "-"
	}
	attendance := strconv.FormatFloat(s.Attendance, 'f', -1, 64)

	if lang == i18n.BN {
		return fmt.Sprintf("নিচে দেওয়া শিক্ষার্থী তথ্যের উপর ভিত্তি করে একটি সংক্ষিপ্ত এবং উৎসাহমূলক কর্মক্ষমতা রিপোর্ট তৈরি করুন:\n"+
			"নাম: %s, রোল: %s, ক্লাস: %s, গ্রেড: %s, উপস্থিতি: %s%%।\n"+
			"রিপোর্টটি বাংলায় লিখুন এবং শিক্ষার্থীর উন্নতির জন্য কিছু পরামর্শ দিন।",
			s.DisplayName("bn"), s.Roll, s.Class, grade, attendance)
	}
	return fmt.Sprintf("Generate a brief and encouraging performance insight for the following student:\n"+
		"Name: %s, Roll: %s, Class: %s, Grade: %s, Attendance: %s%%.\n"+
		"Provide suggestions for improvement in English.",
		s.DisplayName("en"), s.Roll, s.Class, grade, attendance)
}
