package license_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpbiotech/configurator/pkg/license"
)

func TestEncodeCSV(t *testing.T) {
	t.Parallel()

	records := []license.Record{
		{
			Serial:         "SN-002",
			Status:         license.StatusValid,
			ActivationDate: date(2025, 3, 1),
			Expires:        date(2026, 3, 1),
			Features:       license.NewFeatureSet("stitching", "custom"),
		},
		{
			Serial:   "SN-001",
			Status:   license.StatusNotActive,
			Features: license.NewFeatureSet(),
		},
	}

	data, err := license.EncodeCSV(records, []string{"parallax", "stitching"})
	require.NoError(t, err)

	want := "serial,status,activation_date,expiration_date,custom,parallax,stitching\n" +
		"SN-001,not-active,,,false,false,false\n" +
		"SN-002,valid,2025-03-01,2026-03-01,true,false,true\n"
	assert.Equal(t, want, string(data))
}

func TestEncodeCSV_Empty(t *testing.T) {
	t.Parallel()

	data, err := license.EncodeCSV(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "serial,status,activation_date,expiration_date\n", string(data))

	records, err := license.DecodeCSV(data)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDecodeCSV(t *testing.T) {
	t.Parallel()

	t.Run("lenient tokens and normalization", func(t *testing.T) {
		t.Parallel()
		data := "Serial,Status,Activation_Date,Expiration_Date,feature-parallax,measure\n" +
			"ab-12, VALID ,2025-01-02,2026-01-02,TRUE,\n" +
			"cd-34,,,,false,true\n"

		records, err := license.DecodeCSV([]byte(data))
		require.NoError(t, err)
		require.Len(t, records, 2)

		ab := records["AB-12"]
		assert.Equal(t, license.StatusValid, ab.Status)
		assert.Equal(t, date(2025, 1, 2), ab.ActivationDate)
		assert.Equal(t, []string{"parallax"}, ab.Features.Sorted())

		cd := records["CD-34"]
		assert.Equal(t, license.StatusNotActive, cd.Status)
		assert.True(t, cd.ActivationDate.IsZero())
		assert.True(t, cd.Expires.IsZero())
		assert.Equal(t, []string{"measure"}, cd.Features.Sorted())
	})

	t.Run("later duplicate wins", func(t *testing.T) {
		t.Parallel()
		data := "serial,status,activation_date,expiration_date\n" +
			"A,not-active,,\n" +
			"a,valid,2025-01-02,2026-01-02\n"

		records, err := license.DecodeCSV([]byte(data))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, license.StatusValid, records["A"].Status)
	})

	t.Run("blank serial rows are skipped", func(t *testing.T) {
		t.Parallel()
		records, err := license.DecodeCSV([]byte("serial,status,activation_date,expiration_date\n ,valid,,\n"))
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	invalid := map[string]string{
		"wrong header":    "serial,state,activation_date,expiration_date\n",
		"short header":    "serial,status\n",
		"unknown status":  "serial,status,activation_date,expiration_date\nA,paused,,\n",
		"bad date":        "serial,status,activation_date,expiration_date\nA,valid,01/02/2025,\n",
		"bad token":       "serial,status,activation_date,expiration_date,parallax\nA,valid,,,yes\n",
		"ragged row":      "serial,status,activation_date,expiration_date\nA,valid,,,true\n",
		"unnamed feature": "serial,status,activation_date,expiration_date,\nA,valid,,,true\n",
	}
	for name, data := range invalid {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := license.DecodeCSV([]byte(data))
			require.ErrorIs(t, err, license.ErrInvalidSnapshot)
		})
	}
}

func TestParseFeatures(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"parallax", "measure"}, license.ParseFeatures("feature-parallax, Measure,,"))
	assert.Empty(t, license.ParseFeatures(""))
}

func TestNormalizeSerial(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "AB-12", license.NormalizeSerial("  ab-12\t"))
	assert.Empty(t, license.NormalizeSerial("   "))
}
