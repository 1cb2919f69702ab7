package domain

import (
	"time"
	"unicode/utf8"
)

// JobStatus is the lifecycle state of a translation job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether no further transition is expected.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// TranslationJob is one asynchronous translation request owned by an account.
type TranslationJob struct {
	ID             string     `json:"id"`
	AccountID      string     `json:"account_id"`
	SourceLang     string     `json:"source_lang"`
	TargetLang     string     `json:"target_lang"`
	OriginalText   string     `json:"original_text"`
	TranslatedText string     `json:"translated_text,omitempty"`
	Status         JobStatus  `json:"status"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CharCount      int        `json:"char_count"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Complete stores the translation and closes the job.
func (j *TranslationJob) Complete(translated string, now time.Time) {
	j.Status = JobCompleted
	j.TranslatedText = translated
	j.ErrorMessage = ""
	j.CharCount = utf8.RuneCountInString(j.OriginalText)
	j.CompletedAt = &now
}

// Fail records why the job could not be translated.
func (j *TranslationJob) Fail(message string, now time.Time) {
	j.Status = JobFailed
	j.ErrorMessage = message
	j.CompletedAt = &now
}
