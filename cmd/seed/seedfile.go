package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dlms/dlms-backend/internal/model"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout accepted by the seed command.
//
//	questions:
//	  - exam_type: theory
//	    language: en
//	    category: signs
//	    difficulty: easy
//	    question: What does a red octagon mean?
//	    options: [Stop, Yield, Go]
//	    correct_answer: 0
//	    translations:
//	      am: {question: ..., options: [..., ..., ...]}
//	licenses:
//	  - email: abebe@example.com
//	    license_number: DL-0001
//	    class: B
//	    issue_date: 2024-01-15
//	    expiry_date: 2029-01-15
type seedFile struct {
	Questions []seedQuestion `yaml:"questions"`
	Licenses  []seedLicense  `yaml:"licenses"`
}

type seedText struct {
	Question string   `yaml:"question"`
	Options  []string `yaml:"options"`
}

type seedQuestion struct {
	ExamType      string              `yaml:"exam_type"`
	Language      string              `yaml:"language"`
	Category      string              `yaml:"category"`
	Difficulty    string              `yaml:"difficulty"`
	Question      string              `yaml:"question"`
	Options       []string            `yaml:"options"`
	CorrectAnswer *int                `yaml:"correct_answer"`
	Translations  map[string]seedText `yaml:"translations"`
}

type seedLicense struct {
	Email         string `yaml:"email"`
	LicenseNumber string `yaml:"license_number"`
	Class         string `yaml:"class"`
	IssueDate     string `yaml:"issue_date"`
	ExpiryDate    string `yaml:"expiry_date"`
	MaxPoints     int    `yaml:"max_points"`
}

func loadSeedFile(path string) (*seedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

func (q seedQuestion) request() *model.QuestionRequest {
	req := &model.QuestionRequest{
		ExamType:      model.ExamType(q.ExamType),
		Language:      model.Language(q.Language),
		Category:      q.Category,
		Difficulty:    model.Difficulty(q.Difficulty),
		Question:      q.Question,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
	}
	if req.Language == "" {
		req.Language = model.LanguageEnglish
	}
	if req.Difficulty == "" {
		req.Difficulty = model.DifficultyMedium
	}
	if len(q.Translations) > 0 {
		req.Translations = make(map[model.Language]model.QuestionText, len(q.Translations))
		for lang, t := range q.Translations {
			req.Translations[model.Language(lang)] = model.QuestionText{Question: t.Question, Options: t.Options}
		}
	}
	return req
}

// license builds the license for holderID. MaxPoints defaults to fallback.
func (l seedLicense) license(holderID, fallbackMax int) (*model.License, error) {
	issued, err := time.Parse(time.DateOnly, l.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("license %s: issue_date: %w", l.LicenseNumber, err)
	}
	expires, err := time.Parse(time.DateOnly, l.ExpiryDate)
	if err != nil {
		return nil, fmt.Errorf("license %s: expiry_date: %w", l.LicenseNumber, err)
	}
	if !expires.After(issued) {
		return nil, fmt.Errorf("license %s: expiry_date must be after issue_date", l.LicenseNumber)
	}

	maxPoints := l.MaxPoints
	if maxPoints <= 0 {
		maxPoints = fallbackMax
	}
	class := l.Class
	if class == "" {
		class = "B"
	}

	return &model.License{
		UserID:        holderID,
		LicenseNumber: l.LicenseNumber,
		Class:         class,
		IssueDate:     issued,
		ExpiryDate:    expires,
		Status:        model.LicenseStatusValid,
		MaxPoints:     maxPoints,
	}, nil
}
