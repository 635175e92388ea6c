package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"local-marketplace/internal/client"
	"local-marketplace/internal/formflow"
	"local-marketplace/internal/schema"
	"local-marketplace/internal/seed"
)

var (
	adminAPIURL string
	adminToken  string
	adminFile   string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create or edit records through a running marketplace API",
	Long: `Kinds: city, business, product, product-category, product-tag, service,
location-profile, terms (collection names such as "cities" work too).

Payload files are YAML or JSON mappings using the API field names. Use "-" to read from stdin.`,
}

var adminCreateCmd = &cobra.Command{
	Use:   "create <kind>",
	Short: "Create a record from a payload file",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminCreate,
}

var adminEditCmd = &cobra.Command{
	Use:   "edit <kind> <id>",
	Short: "Load a record, apply the fields from a payload file and save it",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdminEdit,
}

func init() {
	adminCmd.PersistentFlags().StringVar(&adminAPIURL, "api", "", "API base URL (default $MARKETPLACE_API_URL or http://localhost:8080)")
	adminCmd.PersistentFlags().StringVar(&adminToken, "token", "", "admin API token (default $ADMIN_API_TOKEN)")
	adminCmd.PersistentFlags().StringVarP(&adminFile, "file", "f", "-", "payload file")
	adminCmd.AddCommand(adminCreateCmd, adminEditCmd)
}

// consoleUI reports form outcomes on the terminal.
type consoleUI struct {
	out io.Writer
}

func (c consoleUI) Success(msg string)     { fmt.Fprintf(c.out, "OK: %s\n", msg) }
func (c consoleUI) Failure(msg string)     { fmt.Fprintf(c.out, "ERROR: %s\n", msg) }
func (c consoleUI) Navigate(route string) { fmt.Fprintf(c.out, "-> %s\n", route) }

func newAdminController(cmd *cobra.Command) *formflow.Controller {
	baseURL := firstNonEmpty(adminAPIURL, os.Getenv("MARKETPLACE_API_URL"), "http://localhost:8080")
	token := firstNonEmpty(adminToken, os.Getenv("ADMIN_API_TOKEN"))
	ui := consoleUI{out: cmd.OutOrStdout()}
	return formflow.NewController(client.New(baseURL, client.WithToken(token)), ui, ui, logger)
}

func openPayload(cmd *cobra.Command) (io.ReadCloser, error) {
	if adminFile == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(adminFile)
	if err != nil {
		return nil, fmt.Errorf("open payload: %w", err)
	}
	return f, nil
}

func label(e schema.Entity) string {
	return strings.ReplaceAll(string(e.Kind), "_", " ")
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	entity, err := schema.ParseKind(args[0])
	if err != nil {
		return err
	}
	r, err := openPayload(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	doc, err := seed.ReadDocument(r, entity)
	if err != nil {
		return err
	}

	return newAdminController(cmd).Submit(cmd.Context(), formflow.Submission{
		Method:         http.MethodPost,
		Path:           entity.Path,
		Payload:        doc,
		ListRoute:      entity.ListRoute,
		SuccessMessage: fmt.Sprintf("%s created", label(entity)),
	})
}

func runAdminEdit(cmd *cobra.Command, args []string) error {
	entity, err := schema.ParseKind(args[0])
	if err != nil {
		return err
	}
	r, err := openPayload(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	changes, err := seed.ReadFields(r)
	if err != nil {
		return err
	}

	form := formflow.Open[map[string]any](cmd.Context(), newAdminController(cmd), formflow.Target{
		Path:      entity.Path,
		ID:        args[1],
		ListRoute: entity.ListRoute,
	})
	record, ok := form.Record()
	if !ok {
		return fmt.Errorf("could not load %s %s", label(entity), args[1])
	}
	logger.Debug("loaded record for edit", zap.String("kind", string(entity.Kind)), zap.Any("record", record))

	for k, v := range changes {
		record[k] = v
	}
	payload, err := typedPayload(entity, record)
	if err != nil {
		return err
	}
	return form.Submit(cmd.Context(), payload)
}

// typedPayload checks the merged record against the entity's fields and returns it in API form.
func typedPayload(entity schema.Entity, record map[string]any) (map[string]any, error) {
	doc, err := seed.DecodeFields(entity, record)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", label(entity), err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("encode %s: %w", label(entity), err)
	}
	return out, nil
}
