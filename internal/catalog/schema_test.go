package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-lake-etl/internal/domain"
)

type mockGlue struct {
	out *glue.GetTableOutput
	err error
}

func (m *mockGlue) GetTable(_ context.Context, _ *glue.GetTableInput, _ ...func(*glue.Options)) (*glue.GetTableOutput, error) {
	return m.out, m.err
}

func matchingTableOutput() *glue.GetTableOutput {
	cols := make([]gluetypes.Column, 0, len(domain.ProcessedColumns))
	for _, c := range domain.ProcessedColumns {
		cols = append(cols, gluetypes.Column{Name: aws.String(c.Name), Type: aws.String(c.Type)})
	}
	parts := make([]gluetypes.Column, 0, len(domain.PartitionColumns))
	for _, p := range domain.PartitionColumns {
		parts = append(parts, gluetypes.Column{Name: aws.String(p.Name), Type: aws.String(p.Type)})
	}
	return &glue.GetTableOutput{
		Table: &gluetypes.Table{
			Name: aws.String("observations"),
			StorageDescriptor: &gluetypes.StorageDescriptor{
				Location: aws.String("s3://weather-lake/processed/"),
				Columns:  cols,
			},
			PartitionKeys: parts,
		},
	}
}

func TestLoadTableSchema(t *testing.T) {
	client := &mockGlue{out: matchingTableOutput()}

	schema, err := LoadTableSchema(context.Background(), client, "weather_lake", "observations")
	require.NoError(t, err)

	assert.Equal(t, "weather_lake", schema.Database)
	assert.Equal(t, "observations", schema.Table)
	assert.Equal(t, "s3://weather-lake/processed/", schema.Location)
	assert.Len(t, schema.Columns, len(domain.ProcessedColumns))
	assert.Len(t, schema.Partitions, len(domain.PartitionColumns))
	assert.Equal(t, domain.SchemaColumn{Name: "city_name", Type: "string"}, schema.Columns[0])
}

func TestLoadTableSchema_GlueError(t *testing.T) {
	client := &mockGlue{err: errors.New("AccessDeniedException")}

	_, err := LoadTableSchema(context.Background(), client, "weather_lake", "observations")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weather_lake.observations")
}

func TestLoadTableSchema_NormalizesTypes(t *testing.T) {
	out := matchingTableOutput()
	out.Table.StorageDescriptor.Columns[0].Type = aws.String(" STRING ")
	client := &mockGlue{out: out}

	schema, err := LoadTableSchema(context.Background(), client, "weather_lake", "observations")
	require.NoError(t, err)
	assert.Equal(t, "string", schema.Columns[0].Type)
}

func TestVerify_Match(t *testing.T) {
	schema := &TableSchema{
		Database:   "weather_lake",
		Table:      "observations",
		Columns:    append([]domain.SchemaColumn(nil), domain.ProcessedColumns...),
		Partitions: append([]domain.SchemaColumn(nil), domain.PartitionColumns...),
	}
	assert.NoError(t, Verify(schema))
}

func TestVerify_TypeMismatch(t *testing.T) {
	cols := append([]domain.SchemaColumn(nil), domain.ProcessedColumns...)
	cols[3].Type = "float"
	schema := &TableSchema{
		Database:   "weather_lake",
		Table:      "observations",
		Columns:    cols,
		Partitions: append([]domain.SchemaColumn(nil), domain.PartitionColumns...),
	}

	err := Verify(schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")
	assert.Contains(t, err.Error(), "float")
}

func TestVerify_MissingPartitionKey(t *testing.T) {
	schema := &TableSchema{
		Database:   "weather_lake",
		Table:      "observations",
		Columns:    append([]domain.SchemaColumn(nil), domain.ProcessedColumns...),
		Partitions: domain.PartitionColumns[:2],
	}

	err := Verify(schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"hour" missing`)
}

func TestVerify_CollectsAllMismatches(t *testing.T) {
	cols := append([]domain.SchemaColumn(nil), domain.ProcessedColumns...)
	cols[0].Name = "city"
	cols[4].Type = "float"
	schema := &TableSchema{
		Database:   "weather_lake",
		Table:      "observations",
		Columns:    cols,
		Partitions: append([]domain.SchemaColumn(nil), domain.PartitionColumns...),
	}

	err := Verify(schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "city_name")
	assert.Contains(t, err.Error(), "longitude")
}
