package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/medextract/pkg/utils/json"
)

func TestTextUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Text
	}{
		{"string", `"  Dr. Rao "`, "Dr. Rao"},
		{"null", `null`, ""},
		{"blank", `"   "`, ""},
		{"number", `42`, "42"},
		{"bool", `true`, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Text
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextMarshalEmptyAsNull(t *testing.T) {
	b, err := json.Marshal(struct {
		A Text `json:"a"`
		B Text `json:"b"`
	}{A: " ", B: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":null,"b":"x"}`, string(b))
}

func TestTextListAcceptsScalar(t *testing.T) {
	var l TextList
	require.NoError(t, json.Unmarshal([]byte(`"Penicillin"`), &l))
	assert.Equal(t, TextList{"Penicillin"}, l)

	require.NoError(t, json.Unmarshal([]byte(`null`), &l))
	assert.Nil(t, l)

	b, err := json.Marshal(TextList(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	assert.Equal(t, []string{"a", "b"}, TextList{"a", "", "b"}.Strings())
}

func TestScore(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		valid bool
	}{
		{`85`, 85, true},
		{`0`, 0, true},
		{`"92"`, 92, true},
		{`"75%"`, 75, true},
		{`"high"`, 0, false},
		{`null`, 0, false},
	}
	for _, tt := range tests {
		var s Score
		require.NoError(t, json.Unmarshal([]byte(tt.in), &s), tt.in)
		assert.Equal(t, tt.valid, s.Valid, tt.in)
		assert.Equal(t, tt.want, s.Value, tt.in)
	}

	b, err := json.Marshal(Score{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestMedicationFromBareString(t *testing.T) {
	var c ClinicalData
	require.NoError(t, json.Unmarshal([]byte(`{"medications":["Paracetamol",{"name":"Ibuprofen","dosage":"400mg"}]}`), &c))
	require.Len(t, c.Medications, 2)
	assert.Equal(t, Text("Paracetamol"), c.Medications[0].Name)
	assert.Equal(t, Text("400mg"), c.Medications[1].Dosage)
	assert.False(t, c.Medications[0].IsEmpty())
	assert.True(t, Medication{}.IsEmpty())
}

func TestVitalPairsSkipsEmpty(t *testing.T) {
	v := VitalSigns{HeartRate: "72 bpm", Temperature: " ", BMI: "22.1"}
	assert.Equal(t, []VitalSign{{Key: "heartRate", Value: "72 bpm"}, {Key: "bmi", Value: "22.1"}}, v.Pairs())
}

func TestFailedPage(t *testing.T) {
	p := FailedPage("Page 2 could not be processed - Response read error")
	assert.Equal(t, ScoreOf(0), p.ExtractionMetadata.ConfidenceScore)
	assert.NotNil(t, p.ClinicalData.Medications)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"medications":[]`)
	assert.Contains(t, string(b), `"fullName":null`)
}

func TestJSONColumn(t *testing.T) {
	c := NewJSONColumn([]string{"a", "b"})
	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	var nilRec JSONColumn[*HealthRecommendations]
	v, err = nilRec.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	var scanned JSONColumn[[]int]
	require.NoError(t, scanned.Scan([]byte(`[90,80]`)))
	assert.Equal(t, []int{90, 80}, scanned.Data)
	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned.Data)
	assert.Error(t, scanned.Scan(42))
}

func TestTierQueueLimit(t *testing.T) {
	assert.Equal(t, 2, TierFree.QueueLimit())
	assert.Equal(t, 10, TierBasic.QueueLimit())
	assert.Equal(t, 50, TierPro.QueueLimit())
	assert.Equal(t, 1000, TierEnterprise.QueueLimit())
	assert.Equal(t, 2, Tier("platinum").QueueLimit())
	assert.Equal(t, TierFree, Tier("").Normalize())
}

func TestJobStatusTerminal(t *testing.T) {
	assert.True(t, JobCompleted.IsTerminal())
	assert.True(t, JobFailed.IsTerminal())
	assert.False(t, JobPending.IsTerminal())
	assert.False(t, JobProcessing.IsTerminal())
}

func TestJobStatusViewAlwaysHasQueuePosition(t *testing.T) {
	out, err := json.Marshal(&JobStatusView{JobID: "j1", Status: JobCompleted})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"queue_position":0`)
}
