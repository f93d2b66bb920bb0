package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wastewatch/iface"
)

func det(class string, conf float32) iface.Detection {
	return iface.Detection{Class: class, Conf: conf, Box: iface.BoxFromCorners(0, 0, 10, 10)}
}

func TestClassify_All(t *testing.T) {
	t.Run("empty frame is never a violation", func(t *testing.T) {
		res, err := Classify(nil, BinDry)
		assert.NoError(t, err)
		assert.False(t, res.IsViolation)
		assert.False(t, res.IsMixed)
		assert.Equal(t, "", res.DominantClass)
		assert.Equal(t, float32(0), res.DominantConf)
	})

	t.Run("dominant class wins by confidence", func(t *testing.T) {
		res, err := Classify([]iface.Detection{det("wet", 0.9), det("dry", 0.6)}, BinDry)
		assert.NoError(t, err)
		assert.Equal(t, "wet", res.DominantClass)
		assert.Equal(t, float32(0.9), res.DominantConf)
		assert.True(t, res.IsViolation)
		assert.True(t, res.IsMixed)
	})

	t.Run("matching single class", func(t *testing.T) {
		res, err := Classify([]iface.Detection{det("wet", 0.95)}, BinWet)
		assert.NoError(t, err)
		assert.False(t, res.IsViolation)
		assert.False(t, res.IsMixed)
		assert.Equal(t, "wet", res.DominantClass)
	})

	t.Run("confidence tie keeps first detection", func(t *testing.T) {
		res, err := Classify([]iface.Detection{det("dry", 0.7), det("wet", 0.7)}, BinWet)
		assert.NoError(t, err)
		assert.Equal(t, "dry", res.DominantClass)
		assert.True(t, res.IsViolation)
		assert.True(t, res.IsMixed)
	})

	t.Run("single class repeated is not mixed", func(t *testing.T) {
		res, err := Classify([]iface.Detection{det("dry", 0.4), det("dry", 0.8)}, BinDry)
		assert.NoError(t, err)
		assert.False(t, res.IsMixed)
		assert.Equal(t, float32(0.8), res.DominantConf)
		assert.False(t, res.IsViolation)
	})

	t.Run("rejects confidence out of range", func(t *testing.T) {
		_, err := Classify([]iface.Detection{det("dry", 1.2)}, BinDry)
		assert.ErrorIs(t, err, ErrInvalidConfidence)

		_, err = Classify([]iface.Detection{det("wet", -0.1)}, BinWet)
		assert.ErrorIs(t, err, ErrInvalidConfidence)
	})
}

func TestParseBin(t *testing.T) {
	b, err := ParseBin("dry")
	assert.NoError(t, err)
	assert.Equal(t, BinDry, b)

	b, err = ParseBin("wet")
	assert.NoError(t, err)
	assert.Equal(t, BinWet, b)

	_, err = ParseBin("recyclable")
	assert.Error(t, err)
}
