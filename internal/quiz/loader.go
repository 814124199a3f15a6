package quiz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlBankFile is the top-level YAML structure for question bank files.
type yamlBankFile struct {
	Questions []yamlQuestion `yaml:"questions"`
}

// yamlQuestion is the YAML representation of a question.
type yamlQuestion struct {
	Text    string   `yaml:"text"`
	Options []string `yaml:"options"`
	Correct int      `yaml:"correct"`
}

// LoadQuestionsFromFile reads and validates a question bank YAML file.
//
// Precondition: path must point to a valid YAML bank file.
// Postcondition: Returns validated questions or a non-nil error.
func LoadQuestionsFromFile(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question file %s: %w", path, err)
	}
	return LoadQuestionsFromBytes(data)
}

// LoadQuestionsFromBytes parses and validates questions from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the bank schema.
// Postcondition: Returns validated questions or a non-nil error. An empty
// file yields an empty slice and no error.
func LoadQuestionsFromBytes(data []byte) ([]Question, error) {
	var file yamlBankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing question YAML: %w", err)
	}

	questions := make([]Question, 0, len(file.Questions))
	for i, yq := range file.Questions {
		q := Question{
			Text:         yq.Text,
			Options:      yq.Options,
			CorrectIndex: yq.Correct,
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("validating question %d: %w", i, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}
