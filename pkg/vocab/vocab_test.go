package vocab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/geomanifest/pkg/errors"
	"github.com/agentstation/geomanifest/pkg/vocab"
)

func TestDefaultLoads(t *testing.T) {
	v := vocab.Default()
	require.NotNil(t, v)
	assert.NotEmpty(t, v.Version)
	assert.Len(t, v.FieldSignatures, 6)
	assert.Len(t, v.DatasetHints, 9)
	assert.Same(t, v, vocab.Default())
}

func TestKnownLayer(t *testing.T) {
	v := vocab.Default()
	tests := []struct {
		name  string
		want  string
		found bool
	}{
		{"rivers", "Реки", true},
		{"RIVERS", "Реки", true},
		{"_faults_", "Разломы", true},
		{"obl_p", "Административные границы (область)", true},
		{"oblp", "", false},
		{"gms_r", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := v.KnownLayer(tt.name)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignature(t *testing.T) {
	v := vocab.Default()

	label, ok := v.Signature([]string{"OBJECTID", "DELTA_G", "Shape_Length"})
	require.True(t, ok)
	assert.Equal(t, "Гравиметрические данные", label)

	// The first signature in table order wins.
	label, ok = v.Signature([]string{"dt", "height"})
	require.True(t, ok)
	assert.Equal(t, "Рельеф (горизонтали)", label)

	_, ok = v.Signature([]string{"name", "code"})
	assert.False(t, ok)
}

func TestHint(t *testing.T) {
	v := vocab.Default()
	tests := []struct {
		name string
		want string
	}{
		{"BaseA_R_42", "лист номенклатуры"},
		{"IZOL_gms", "Изолинии"},
		{"extr_max", "Экстремумы"},
		{"iz_uch2020", "Изученность"},
		{"photos_attach", "Таблица вложений"},
		{"gr_iz", "Гравиметрическая изученность"},
		{"mag_iz", "Аэромагнитная изученность"},
		{"opmar_1", "Оперативный маршрут"},
		{"grav_n_pole", "Нормальное поле"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := v.Hint(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := v.Hint("rivers")
	assert.False(t, ok)
}

func TestUnits(t *testing.T) {
	v := vocab.Default()
	assert.Equal(t, "мГал", v.Units("Поле дельта G (мГал)"))
	assert.Equal(t, "нТл/км", v.Units("Градиент (нТл/км)"))
	assert.Equal(t, "x100 нТл", v.Units("Поле T (x100 нТл)"))
	assert.Equal(t, "МГАЛ", v.Units("Аномалии (МГАЛ)"))
	assert.Empty(t, v.Units("Реки (основные)"))
	assert.Empty(t, v.Units("Реки"))
}

func TestAliases(t *testing.T) {
	v := vocab.Default()
	assert.Equal(t, []string{"гравика", "гравитационное поле", "gravity"}, v.KeywordAliases("Поле дельта G (мГал) gms_r"))
	assert.Equal(t, []string{"гравика", "гравиметрия", "gravity"}, v.UnitAliases("мГал"))
	assert.Nil(t, v.UnitAliases(""))
	assert.Empty(t, v.KeywordAliases("roads_2020"))
}

func TestTransliterate(t *testing.T) {
	v := vocab.Default()
	assert.Equal(t, "pole delta g", v.Transliterate("Поле дельта G"))
	assert.Equal(t, "yozh", v.Transliterate("Ёж"))
	assert.Equal(t, "obekt", v.Transliterate("Объект"))
}

func TestCRSLabel(t *testing.T) {
	v := vocab.Default()
	assert.Equal(t, "EPSG:4326 (WGS 84)", v.CRSLabel("EPSG:4326"))
	assert.Equal(t, "EPSG:3857", v.CRSLabel("EPSG:3857"))
}

func TestLoad(t *testing.T) {
	t.Run("custom table", func(t *testing.T) {
		v, err := vocab.Load([]byte(`
version: test
known_layers:
  pipes: Трубопроводы
dataset_hints:
  - pattern: '^pp_'
    label: Трубы
transliteration:
  т: t
`))
		require.NoError(t, err)
		got, ok := v.KnownLayer("Pipes")
		assert.True(t, ok)
		assert.Equal(t, "Трубопроводы", got)
		assert.Empty(t, v.Units("Поле (мГал)"))
		hint, ok := v.Hint("PP_main")
		assert.True(t, ok)
		assert.Equal(t, "Трубы", hint)
	})

	t.Run("missing version", func(t *testing.T) {
		_, err := vocab.Load([]byte(`known_layers: {}`))
		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := vocab.Load([]byte("version: x\ndataset_hints:\n  - pattern: '('\n    label: y\n"))
		assert.Error(t, err)
	})

	t.Run("multi-character transliteration key", func(t *testing.T) {
		_, err := vocab.Load([]byte("version: x\ntransliteration:\n  ab: c\n"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := vocab.Load([]byte("version: [unterminated"))
		assert.Error(t, err)
	})
}
