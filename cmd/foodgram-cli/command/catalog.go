package command

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"foodgram/database"
	"foodgram/internal/microservices/http-api/repository"
	"foodgram/internal/microservices/http-api/service"

	"github.com/spf13/cobra"
)

var importIngredientsCmd = &cobra.Command{
	Use:   "import-ingredients [file.csv]",
	Short: "Import ingredients from rows of name,measurement_unit",
	Long: `Import ingredients from a CSV file without a header. Each row is
name,measurement_unit; an empty unit falls back to the default. Ingredients
that already exist are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := readCSV(args[0], 1, 2)
		if err != nil {
			return err
		}
		inputs := make([]service.IngredientInput, 0, len(rows))
		for _, r := range rows {
			in := service.IngredientInput{Name: r[0]}
			if len(r) > 1 {
				in.MeasurementUnit = r[1]
			}
			inputs = append(inputs, in)
		}

		catalog, closeDB, err := openCatalog()
		if err != nil {
			return err
		}
		defer closeDB()

		res, err := catalog.ImportIngredients(cmd.Context(), inputs)
		printImport(cmd, "ingredients", res)
		return err
	},
}

var importTagsCmd = &cobra.Command{
	Use:   "import-tags [file.csv]",
	Short: "Import tags from rows of name,color,slug",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := readCSV(args[0], 3, 3)
		if err != nil {
			return err
		}
		inputs := make([]service.TagInput, 0, len(rows))
		for _, r := range rows {
			inputs = append(inputs, service.TagInput{Name: r[0], Color: r[1], Slug: r[2]})
		}

		catalog, closeDB, err := openCatalog()
		if err != nil {
			return err
		}
		defer closeDB()

		res, err := catalog.ImportTags(cmd.Context(), inputs)
		printImport(cmd, "tags", res)
		return err
	},
}

func openCatalog() (service.CatalogService, func(), error) {
	db, log, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	catalog := service.NewCatalogService(repository.NewTagRepository(db), repository.NewIngredientRepository(db), log)
	return catalog, func() { _ = database.Close(db) }, nil
}

func printImport(cmd *cobra.Command, what string, res service.ImportResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %d created, %d skipped\n", what, res.Created, res.Skipped)
}

// readCSV reads every non-blank record of path, each with between min and max
// fields.
func readCSV(path string, minFields, maxFields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return parseCSV(f, minFields, maxFields)
}

func parseCSV(r io.Reader, minFields, maxFields int) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) < minFields || len(record) > maxFields {
			return nil, fmt.Errorf("line %d: expected %d to %d fields, got %d", line, minFields, maxFields, len(record))
		}
		rows = append(rows, record)
	}
}
