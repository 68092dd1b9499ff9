// Package loader reads question sets from CSV files.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"quiz-runner/internal/domain"
)

// RequiredColumns is the header schema of a question file, in report order.
var RequiredColumns = []string{
	"question",
	"option1",
	"option2",
	"option3",
	"option4",
	"correct_answer",
	"explanation",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileLoader reads question sets from CSV files on disk.
type FileLoader struct {
	strict bool
}

// NewFileLoader returns a loader. With strict set, rows whose correct answer
// is not one of their options are rejected.
func NewFileLoader(strict bool) *FileLoader {
	return &FileLoader{strict: strict}
}

// LoadQuestions returns the questions of path in file order.
func (l *FileLoader) LoadQuestions(ctx context.Context, path string) ([]domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.LoadError{Source: path, Err: err}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.LoadError{Source: path, Err: err}
	}
	defer f.Close()
	return Parse(f, path, l.strict)
}

// Parse decodes a question set from r. source only labels errors.
func Parse(r io.Reader, source string, strict bool) ([]domain.Question, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.Comma = ','
	reader.FieldsPerRecord = -1
	// Quotes inside an unquoted field are kept as literal characters.
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		header = nil
	} else if err != nil {
		return nil, &domain.LoadError{Source: source, Err: fmt.Errorf("read header: %w", err)}
	}
	if err := checkUTF8(reader, header); err != nil {
		return nil, &domain.LoadError{Source: source, Err: err}
	}

	index := make(map[string]int, len(header))
	// A repeated column name resolves to its last occurrence.
	for i, name := range header {
		index[name] = i
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaError{Missing: missing}
	}

	field := func(record []string, col string) string {
		i := index[col]
		if i < len(record) {
			return record[i]
		}
		return ""
	}

	var questions []domain.Question
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.LoadError{Source: source, Err: err}
		}
		if err := checkUTF8(reader, record); err != nil {
			return nil, &domain.LoadError{Source: source, Err: err}
		}
		q := domain.Question{
			Prompt: field(record, "question"),
			Options: []string{
				field(record, "option1"),
				field(record, "option2"),
				field(record, "option3"),
				field(record, "option4"),
			},
			CorrectAnswer: field(record, "correct_answer"),
			Explanation:   field(record, "explanation"),
		}
		if strict && !q.HasCorrectOption() {
			line, _ := reader.FieldPos(0)
			return nil, &domain.LoadError{
				Source: source,
				Err:    fmt.Errorf("line %d: correct answer %q is not one of the options", line, q.CorrectAnswer),
			}
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// checkUTF8 rejects a record holding bytes that are not valid UTF-8.
func checkUTF8(reader *csv.Reader, record []string) error {
	for i, f := range record {
		if !utf8.ValidString(f) {
			line, _ := reader.FieldPos(i)
			return fmt.Errorf("line %d: invalid UTF-8", line)
		}
	}
	return nil
}
