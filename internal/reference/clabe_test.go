package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCLABE(t *testing.T) {
	tests := []struct {
		name        string
		clabe       string
		expectedErr error
	}{
		{name: "Success_Banamex", clabe: "002010077777777771"},
		{name: "Error_BBVAChecksum", clabe: "012180004567891238", expectedErr: ErrCLABEChecksum},
		{name: "Success_Example", clabe: "032180000118359719"},
		{name: "Error_Short", clabe: "03218000011835971", expectedErr: ErrCLABELength},
		{name: "Error_Letters", clabe: "03218000011835971X", expectedErr: ErrCLABENonNumeric},
		{name: "Error_Checksum", clabe: "032180000118359710", expectedErr: ErrCLABEChecksum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCLABE(tt.clabe)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBuildCLABE(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		clabe, err := BuildCLABE("072", "180", "01234567890")
		require.NoError(t, err)
		assert.Equal(t, "072180012345678907", clabe)
		assert.NoError(t, ValidateCLABE(clabe))
		assert.Equal(t, "072", BankCode(clabe))
	})

	t.Run("Error_PartLength", func(t *testing.T) {
		_, err := BuildCLABE("72", "180", "01234567890")
		assert.Error(t, err)
	})

	t.Run("Error_NonNumeric", func(t *testing.T) {
		_, err := BuildCLABE("072", "18A", "01234567890")
		assert.ErrorIs(t, err, ErrCLABENonNumeric)
	})
}
