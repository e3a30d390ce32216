package dataset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antflydb/searchctl/internal/engine"
)

func TestValidateDocumentRejectsEmptyRequiredFields(t *testing.T) {
	base := engine.Document{ID: "d1", Title: "t", Body: "b", Category: "c", Author: "a"}
	require.NoError(t, ValidateDocument(base))

	missingTitle := base
	missingTitle.Title = ""
	require.Error(t, ValidateDocument(missingTitle))

	negativePopularity := base
	negativePopularity.Popularity = -1
	require.Error(t, ValidateDocument(negativePopularity))
}

func TestNormalizeDocumentsAssignsMissingIDs(t *testing.T) {
	docs := []engine.Document{{Title: "t", Body: "b", Category: "c", Author: "a"}}
	out, err := NormalizeDocuments(docs)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotEmpty(t, out[0].ID)
}
