package contracts_test

import (
	"testing"

	"favorites-sync/internal/contracts"

	"github.com/stretchr/testify/assert"
)

func TestValidate_AddFavoriteRequest(t *testing.T) {
	valid := []string{
		`{"symbol":"AAPL"}`,
		`{"symbol":"brk.b","shortName":"Berkshire","name":"Berkshire Hathaway Inc."}`,
		`{"symbol":"^GSPC"}`,
	}
	for _, body := range valid {
		assert.NoError(t, contracts.Validate(contracts.AddFavoriteRequest, []byte(body)), body)
	}

	invalid := []string{
		`{}`,
		`{"symbol":""}`,
		`{"symbol":"AA PL"}`,
		`{"symbol":42}`,
		`{"symbol":"AAPL","extra":true}`,
		`[]`,
		`not json`,
	}
	for _, body := range invalid {
		assert.Error(t, contracts.Validate(contracts.AddFavoriteRequest, []byte(body)), body)
	}
}

func TestValidate_UnknownSchema(t *testing.T) {
	assert.Error(t, contracts.Validate("missing/v1", []byte(`{}`)))
}
