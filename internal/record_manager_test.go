package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/maisondudroit/entretien"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecordManager(mock pgxmock.PgxPoolIface) entretien.RecordManager {
	tables := entretien.DefaultConfig().Tables
	return NewRecordManager(
		tables,
		NewIntrospector(mock, tables, entretien.MetadataConfig{}),
		NewRecordWriter(mock, tables),
		NewRecordReader(mock, tables),
	)
}

func expectCatalog(mock pgxmock.PgxPoolIface, parent *pgxmock.Rows) {
	mock.ExpectQuery(`FROM pg_attribute`).
		WithArgs("entretien", "public").
		WillReturnRows(parent)
	mock.ExpectQuery(`FROM pg_attribute`).
		WithArgs("demande", "public").
		WillReturnRows(pgxmock.NewRows(catalogColumns).
			AddRow("num", "integer", (*string)(nil), true).
			AddRow("pos", "smallint", (*string)(nil), true).
			AddRow("nature", "character varying(3)", strPtr("Nature de la demande (D:Divorce; L:Logement)"), true))
	mock.ExpectQuery(`FROM pg_attribute`).
		WithArgs("solution", "public").
		WillReturnRows(pgxmock.NewRows(catalogColumns).
			AddRow("num", "integer", (*string)(nil), true).
			AddRow("pos", "smallint", (*string)(nil), true).
			AddRow("code", "character varying(3)", strPtr("Solution (I:Information; O:Orientation)"), true))
}

func TestFormDefinition(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.MatchExpectationsInOrder(true)

	expectCatalog(mock, entretienCatalogRows())

	def, err := newTestRecordManager(mock).FormDefinition(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Entretien", entretien.DefaultGroup, "Usager"}, def.Parent.GroupNames())
	assert.Equal(t, []string{"Divorce", "Logement"}, def.Demande.Labels())
	// no nature column, so the first user-facing column carries the vocabulary
	assert.Equal(t, []string{"I", "O"}, def.Solution.Codes())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFormDefinitionEmptyParentIsUnavailable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM pg_attribute`).
		WithArgs("entretien", "public").
		WillReturnRows(pgxmock.NewRows(catalogColumns))

	_, err = newTestRecordManager(mock).FormDefinition(context.Background())
	require.Error(t, err)
	assert.True(t, entretien.IsSchemaUnavailable(err))
}

func TestFormDefinitionCatalogFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM pg_attribute`).
		WithArgs("entretien", "public").
		WillReturnError(errors.New("connection reset by peer"))

	_, err = newTestRecordManager(mock).FormDefinition(context.Background())
	require.Error(t, err)
	assert.True(t, entretien.IsSchemaUnavailable(err))
}

func TestSubmitEndToEnd(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.MatchExpectationsInOrder(true)

	expectCatalog(mock, entretienCatalogRows())
	mock.ExpectBegin()
	mock.ExpectQuery(exact(`INSERT INTO "public"."entretien" ("date") VALUES ($1) RETURNING "num"`)).
		WithArgs("2024-01-10").
		WillReturnRows(pgxmock.NewRows([]string{"num"}).AddRow(int64(7)))
	mock.ExpectExec(exact(insertDemande)).
		WithArgs(int64(7), 1, "D").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	num, err := newTestRecordManager(mock).Submit(context.Background(), &entretien.Submission{
		Fields:   map[string]any{"date": "2024-01-10"},
		Demandes: []string{"Divorce"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), num)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitRejectsUnknownField(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.MatchExpectationsInOrder(true)

	expectCatalog(mock, entretienCatalogRows())

	_, err = newTestRecordManager(mock).Submit(context.Background(), &entretien.Submission{
		Fields: map[string]any{"date": "2024-01-10", "num": 5},
	})
	require.Error(t, err)
	assert.True(t, entretien.IsValidation(err))

	var engineErr *entretien.Error
	require.True(t, errors.As(err, &engineErr))
	assert.Equal(t, entretien.ErrCodeUnknownField, engineErr.Code)
	assert.Equal(t, "num", engineErr.Field)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitNil(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = newTestRecordManager(mock).Submit(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, entretien.IsValidation(err))
}
