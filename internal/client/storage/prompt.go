package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atinyakov/SymbolBoard/internal/models"
	"github.com/atinyakov/SymbolBoard/internal/service"
)

// ErrPromptClosed is returned when input ends before all answers were read.
var ErrPromptClosed = errors.New("input closed")

// Prompter asks line-based questions on a terminal.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter creates a Prompter. The scanner is shared with the caller's
// command loop, so answers are not swallowed by a second buffer.
func NewPrompter(in *bufio.Scanner, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		return "", ErrPromptClosed
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// PromptCustomWord asks for a new user-created card.
func (p *Prompter) PromptCustomWord() (models.CustomWord, error) {
	label, err := p.ask("Enter label: ")
	if err != nil {
		return models.CustomWord{}, err
	}
	if label == "" {
		return models.CustomWord{}, errors.New("label must not be empty")
	}
	category, err := p.ask("Enter category (leave empty for custom): ")
	if err != nil {
		return models.CustomWord{}, err
	}
	image, err := p.ask("Enter image path: ")
	if err != nil {
		return models.CustomWord{}, err
	}
	if image != "" {
		if _, err := os.Stat(image); err != nil {
			return models.CustomWord{}, fmt.Errorf("image %q: %w", image, err)
		}
	}
	return models.CustomWord{Label: label, Category: strings.ToLower(category), Image: image}, nil
}

// PromptCategoryEdit asks for a category label and an optional icon file.
func (p *Prompter) PromptCategoryEdit(key string) (service.CategoryEdit, error) {
	label, err := p.ask("Enter category label: ")
	if err != nil {
		return service.CategoryEdit{}, err
	}
	path, err := p.ask("Enter icon file path (leave empty to keep): ")
	if err != nil {
		return service.CategoryEdit{}, err
	}

	edit := service.CategoryEdit{Key: key, Label: label}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return service.CategoryEdit{}, fmt.Errorf("failed to read file %q: %w", path, err)
		}
		edit.Image = data
	}
	return edit, nil
}
