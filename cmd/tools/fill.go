package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/maisondudroit/entretien"
	"github.com/maisondudroit/entretien/internal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const noChoice = "(aucun)"

var errAborted = errors.New("fill: aborted")

type inputPrompt struct {
	Message   string
	Help      string
	Validator func(string) error
}

type selectPrompt struct {
	Message string
	Options []string
}

// PromptDriver abstracts the terminal so the fill flow can run against a fake.
type PromptDriver interface {
	Input(ctx context.Context, p inputPrompt) (string, error)
	Select(ctx context.Context, p selectPrompt) (int, error)
	MultiSelect(ctx context.Context, p selectPrompt) ([]int, error)
}

func newFillCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "fill",
		Short: "Record an entretien interactively in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			manager, pool, err := env.manager(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			num, err := runFill(ctx, manager, surveyDriver{})
			if err != nil {
				if errors.Is(err, errAborted) {
					fmt.Fprintln(os.Stderr, "aborted, nothing saved")
					return nil
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "entretien %d enregistré\n", num)
			return nil
		},
	}
}

// runFill prompts for every parent field group by group, then for the
// demande and solution lists, and submits the result.
func runFill(ctx context.Context, manager entretien.RecordManager, driver PromptDriver) (int64, error) {
	def, err := manager.FormDefinition(ctx)
	if err != nil {
		return 0, err
	}

	sub := &entretien.Submission{Fields: make(map[string]any)}
	for _, group := range def.Parent.Groups {
		zap.S().Debugw("prompting group", "group", group.Name, "fields", len(group.Fields))
		for _, field := range group.Fields {
			value, err := promptField(ctx, driver, field)
			if err != nil {
				return 0, err
			}
			sub.Fields[field.Name] = value
		}
	}

	if sub.Demandes, err = promptLabels(ctx, driver, "Demandes", def.Demande); err != nil {
		return 0, err
	}
	if sub.Solutions, err = promptLabels(ctx, driver, "Solutions", def.Solution); err != nil {
		return 0, err
	}

	return manager.Submit(ctx, sub)
}

func promptField(ctx context.Context, driver PromptDriver, field entretien.FieldDescriptor) (any, error) {
	message := fieldLabel(field)

	if field.Widget() == entretien.WidgetSelect {
		options := field.Choices.Labels()
		offset := 0
		if !field.Required {
			options = append([]string{noChoice}, options...)
			offset = 1
		}
		idx, err := driver.Select(ctx, selectPrompt{Message: message, Options: options})
		if err != nil {
			return nil, err
		}
		if idx < offset || idx >= len(options) {
			return nil, nil
		}
		return field.Choices.ResolveCode(options[idx]), nil
	}

	help := ""
	if field.Widget() == entretien.WidgetDate {
		help = "AAAA-MM-JJ"
	}
	raw, err := driver.Input(ctx, inputPrompt{
		Message: message,
		Help:    help,
		Validator: func(s string) error {
			_, err := internal.CoerceFieldValue(field, s)
			return err
		},
	})
	if err != nil {
		return nil, err
	}
	return internal.CoerceFieldValue(field, raw)
}

func promptLabels(ctx context.Context, driver PromptDriver, message string, choices *entretien.ChoiceMapping) ([]string, error) {
	if choices.IsEmpty() {
		return nil, nil
	}
	options := choices.Labels()
	indices, err := driver.MultiSelect(ctx, selectPrompt{Message: message, Options: options})
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(options) {
			labels = append(labels, options[idx])
		}
	}
	return labels, nil
}

var titleCaser = cases.Title(language.French)

func fieldLabel(field entretien.FieldDescriptor) string {
	label := titleCaser.String(strings.ReplaceAll(field.Name, "_", " "))
	if field.Required {
		label += " *"
	}
	return label
}

type surveyDriver struct{}

func (surveyDriver) Input(ctx context.Context, p inputPrompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	var opts []survey.AskOpt
	if p.Validator != nil {
		validate := p.Validator
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			s, _ := ans.(string)
			return validate(s)
		}))
	}
	if err := survey.AskOne(&survey.Input{Message: p.Message, Help: p.Help}, &out, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyDriver) Select(ctx context.Context, p selectPrompt) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var out string
	if err := survey.AskOne(&survey.Select{Message: p.Message, Options: p.Options}, &out); err != nil {
		return 0, translateSurveyErr(err)
	}
	for i, option := range p.Options {
		if option == out {
			return i, nil
		}
	}
	return -1, nil
}

func (surveyDriver) MultiSelect(ctx context.Context, p selectPrompt) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []string
	if err := survey.AskOne(&survey.MultiSelect{Message: p.Message, Options: p.Options}, &out); err != nil {
		return nil, translateSurveyErr(err)
	}
	selected := make(map[string]struct{}, len(out))
	for _, v := range out {
		selected[v] = struct{}{}
	}
	var indices []int
	for i, option := range p.Options {
		if _, ok := selected[option]; ok {
			indices = append(indices, i)
		}
	}
	return indices, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}
