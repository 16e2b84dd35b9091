package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	in := "INVOICE\r\n\r\n\r\n\r\nAcme\tCorp   Ltd  \n------\nTotal:  $110.00   \n"
	out := Normalize(in)

	assert.Equal(t, "INVOICE\n\nAcme Corp Ltd\n\nTotal: $110.00", out)
}

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   \n\t \n"))
}
