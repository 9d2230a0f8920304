package persistence

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrpti-io/nrpti/modules/records/domain/record"
)

func TestRedactedSave_UpsertsByRecordID(t *testing.T) {
	rec := companyRecord()
	rec.ID = uuid.New()

	var gotSQL string
	tx := &stubTx{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			gotSQL = sql
			require.Equal(t, rec.ID.String(), args[0])
			return pgconn.CommandTag{}, nil
		},
	}

	repo := NewRedactedSubsetRepository()
	require.NoError(t, repo.Save(txContext(tx), rec))
	assert.Contains(t, gotSQL, "INSERT INTO redacted_record_subset")
	assert.Contains(t, gotSQL, "ON CONFLICT (record_id) DO UPDATE")
}

func TestRedactedSave_SerializesIssuedTo(t *testing.T) {
	rec := companyRecord()
	rec.ID = uuid.New()

	tx := &stubTx{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			var entity record.Entity
			require.NoError(t, json.Unmarshal(args[11].(json.RawMessage), &entity))
			require.Equal(t, record.EntityCompany, entity.Type)
			require.Equal(t, "ABC Company", entity.CompanyName)
			return pgconn.CommandTag{}, nil
		},
	}

	repo := NewRedactedSubsetRepository()
	require.NoError(t, repo.Save(txContext(tx), rec))
}

func TestRedactedSave_RedactedRecordHasNoIssuedTo(t *testing.T) {
	rec := companyRecord()
	rec.ID = uuid.New()
	rec.IssuedTo = record.Entity{}

	tx := &stubTx{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			require.Nil(t, args[11], "stripped issuedTo must persist as NULL")
			return pgconn.CommandTag{}, nil
		},
	}

	repo := NewRedactedSubsetRepository()
	require.NoError(t, repo.Save(txContext(tx), rec))
}

func TestRedactedUpdate_FallsBackToInsert(t *testing.T) {
	rec := companyRecord()
	rec.ID = uuid.New()

	var statements []string
	tx := &stubTx{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			statements = append(statements, sql)
			if len(statements) == 1 {
				return pgconn.NewCommandTag("UPDATE 0"), nil
			}
			return pgconn.CommandTag{}, nil
		},
	}

	repo := NewRedactedSubsetRepository()
	require.NoError(t, repo.Update(txContext(tx), rec))

	require.Len(t, statements, 2)
	assert.Contains(t, statements[0], "UPDATE redacted_record_subset")
	assert.Contains(t, statements[1], "INSERT INTO redacted_record_subset")
}

func TestRedactedDelete(t *testing.T) {
	id := uuid.New()
	tx := &stubTx{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			require.Contains(t, sql, "DELETE FROM redacted_record_subset")
			require.Equal(t, id.String(), args[0])
			return pgconn.CommandTag{}, nil
		},
	}

	repo := NewRedactedSubsetRepository()
	require.NoError(t, repo.Delete(txContext(tx), id))
}
