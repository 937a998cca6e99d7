package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/postboard/internal/model"
)

type sampleInput struct {
	Name  string `validate:"required,alphanum,min=3,max=8" label:"Username"`
	Email string `validate:"required,email" label:"Email"`
	Note  string `validate:"max=5"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   sampleInput
		wantMsg string
	}{
		{
			name:  "正常な入力",
			input: sampleInput{Name: "alice", Email: "alice@example.com"},
		},
		{
			name:    "必須フィールドが空",
			input:   sampleInput{Email: "alice@example.com"},
			wantMsg: "Username is required",
		},
		{
			name:    "短すぎる",
			input:   sampleInput{Name: "al", Email: "alice@example.com"},
			wantMsg: "Username must be at least 3 characters",
		},
		{
			name:    "長すぎる",
			input:   sampleInput{Name: "aliceliddell", Email: "alice@example.com"},
			wantMsg: "Username must be at most 8 characters",
		},
		{
			name:    "英数字以外を含む",
			input:   sampleInput{Name: "al ice", Email: "alice@example.com"},
			wantMsg: "Username must contain only letters and numbers",
		},
		{
			name:    "メールアドレスの形式が不正",
			input:   sampleInput{Name: "alice", Email: "not-an-email"},
			wantMsg: "Email must be a valid email address",
		},
		{
			name:    "labelがない場合はフィールド名を使う",
			input:   sampleInput{Name: "alice", Email: "alice@example.com", Note: "toolong"},
			wantMsg: "Note must be at most 5 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var appErr *model.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected *model.AppError, got %T (%v)", err, err)
			}
			if appErr.Code != model.ErrCodeValidation {
				t.Errorf("Code = %q, want %q", appErr.Code, model.ErrCodeValidation)
			}
			if appErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", appErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestStruct_MaxCountsCharacters(t *testing.T) {
	// maxはバイト数ではなく文字数で判定される
	input := sampleInput{Name: "alice", Email: "alice@example.com", Note: strings.Repeat("あ", 5)}
	if err := Struct(input); err != nil {
		t.Errorf("expected no error for 5 multibyte characters, got %v", err)
	}
}
