// Package catalog verifies the processed table's Glue catalog definition
// against the column set this service writes, so a schema drift surfaces at
// startup instead of as silent query errors downstream.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/hashicorp/go-multierror"

	"github.com/couchcryptid/weather-lake-etl/internal/domain"
)

// GlueClient is the subset of the Glue API the catalog check uses.
type GlueClient interface {
	GetTable(ctx context.Context, params *glue.GetTableInput, optFns ...func(*glue.Options)) (*glue.GetTableOutput, error)
}

// TableSchema is the column layout of a catalog table.
type TableSchema struct {
	Database   string
	Table      string
	Location   string
	Columns    []domain.SchemaColumn
	Partitions []domain.SchemaColumn
}

// LoadTableSchema fetches a table definition from the Glue catalog.
func LoadTableSchema(ctx context.Context, c GlueClient, database, table string) (*TableSchema, error) {
	out, err := c.GetTable(ctx, &glue.GetTableInput{
		DatabaseName: aws.String(database),
		Name:         aws.String(table),
	})
	if err != nil {
		return nil, fmt.Errorf("glue GetTable %s.%s: %w", database, table, err)
	}

	ti := out.Table
	schema := &TableSchema{
		Database: database,
		Table:    aws.ToString(ti.Name),
	}
	if sd := ti.StorageDescriptor; sd != nil {
		schema.Location = aws.ToString(sd.Location)
		schema.Columns = make([]domain.SchemaColumn, 0, len(sd.Columns))
		for _, col := range sd.Columns {
			schema.Columns = append(schema.Columns, domain.SchemaColumn{
				Name: aws.ToString(col.Name),
				Type: normalizeType(aws.ToString(col.Type)),
			})
		}
	}
	schema.Partitions = make([]domain.SchemaColumn, 0, len(ti.PartitionKeys))
	for _, p := range ti.PartitionKeys {
		schema.Partitions = append(schema.Partitions, domain.SchemaColumn{
			Name: aws.ToString(p.Name),
			Type: normalizeType(aws.ToString(p.Type)),
		})
	}

	return schema, nil
}

// Verify compares a catalog table against the columns this service writes.
// Column order matters for the data columns because parquet writers emit them
// positionally.
func Verify(schema *TableSchema) error {
	var merr *multierror.Error

	merr = multierror.Append(merr, compareColumns("column", schema.Columns, domain.ProcessedColumns))
	merr = multierror.Append(merr, compareColumns("partition key", schema.Partitions, domain.PartitionColumns))

	if err := merr.ErrorOrNil(); err != nil {
		return fmt.Errorf("catalog table %s.%s does not match writer schema: %w", schema.Database, schema.Table, err)
	}
	return nil
}

func compareColumns(kind string, got, want []domain.SchemaColumn) error {
	var merr *multierror.Error

	if len(got) != len(want) {
		merr = multierror.Append(merr, fmt.Errorf("%s count: catalog has %d, writer produces %d", kind, len(got), len(want)))
	}
	for i := range want {
		if i >= len(got) {
			merr = multierror.Append(merr, fmt.Errorf("%s %q missing from catalog", kind, want[i].Name))
			continue
		}
		if got[i].Name != want[i].Name {
			merr = multierror.Append(merr, fmt.Errorf("%s %d: catalog has %q, writer produces %q", kind, i, got[i].Name, want[i].Name))
			continue
		}
		if got[i].Type != want[i].Type {
			merr = multierror.Append(merr, fmt.Errorf("%s %q: catalog type %q, writer type %q", kind, want[i].Name, got[i].Type, want[i].Type))
		}
	}

	return merr.ErrorOrNil()
}

func normalizeType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
