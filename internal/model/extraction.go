package model

import (
	"bytes"

	"github.com/kart-io/medextract/pkg/utils/json"
)

// PageExtraction is the structured output of one page.
type PageExtraction struct {
	PatientInfo        PatientInfo        `json:"patientInfo"`
	DocumentInfo       DocumentInfo       `json:"documentInfo"`
	ProviderInfo       ProviderInfo       `json:"providerInfo"`
	ClinicalData       ClinicalData       `json:"clinicalData"`
	TreatmentPlan      TreatmentPlan      `json:"treatmentPlan"`
	BillingInfo        BillingInfo        `json:"billingInfo"`
	ImagingAndTests    ImagingAndTests    `json:"imagingAndTests"`
	AdditionalData     []AdditionalField  `json:"additionalData"`
	DocumentSummary    Text               `json:"documentSummary"`
	ExtractionMetadata ExtractionMetadata `json:"extractionMetadata"`
}

type PatientInfo struct {
	FullName            Text `json:"fullName"`
	DateOfBirth         Text `json:"dateOfBirth"`
	Age                 Text `json:"age"`
	Gender              Text `json:"gender"`
	MedicalRecordNumber Text `json:"medicalRecordNumber"`
	IPAdmissionNumber   Text `json:"ipAdmissionNumber"`
}

type DocumentInfo struct {
	Type          Text `json:"type"`
	ReportDate    Text `json:"reportDate"`
	AdmissionDate Text `json:"admissionDate"`
	DischargeDate Text `json:"dischargeDate"`
}

type ProviderInfo struct {
	HospitalName   Text     `json:"hospitalName"`
	Department     Text     `json:"department"`
	DoctorName     Text     `json:"doctorName"`
	ConsultantName Text     `json:"consultantName"`
	ContactNumbers TextList `json:"contactNumbers"`
}

type ClinicalData struct {
	ChiefComplaint     Text         `json:"chiefComplaint"`
	Diagnosis          Text         `json:"diagnosis"`
	SecondaryDiagnoses TextList     `json:"secondaryDiagnoses"`
	Procedures         []Procedure  `json:"procedures"`
	Medications        []Medication `json:"medications"`
	LabResults         []LabResult  `json:"labResults"`
	VitalSigns         VitalSigns   `json:"vitalSigns"`
	Allergies          TextList     `json:"allergies"`
	MedicalHistory     Text         `json:"medicalHistory"`
	FamilyHistory      Text         `json:"familyHistory"`
}

type Procedure struct {
	Name    Text `json:"name"`
	Date    Text `json:"date"`
	Details Text `json:"details"`
}

// UnmarshalJSON accepts either an object or a bare procedure name.
func (p *Procedure) UnmarshalJSON(b []byte) error {
	if s := bytes.TrimSpace(b); len(s) > 0 && s[0] != '{' {
		*p = Procedure{}
		return p.Name.UnmarshalJSON(s)
	}
	type plain Procedure
	return json.Unmarshal(b, (*plain)(p))
}

func (p Procedure) IsEmpty() bool {
	return p.Name.IsEmpty() && p.Date.IsEmpty() && p.Details.IsEmpty()
}

type Medication struct {
	Name      Text `json:"name"`
	Dosage    Text `json:"dosage"`
	Frequency Text `json:"frequency"`
	Duration  Text `json:"duration"`
}

// UnmarshalJSON accepts either an object or a bare medication name.
func (m *Medication) UnmarshalJSON(b []byte) error {
	if s := bytes.TrimSpace(b); len(s) > 0 && s[0] != '{' {
		*m = Medication{}
		return m.Name.UnmarshalJSON(s)
	}
	type plain Medication
	return json.Unmarshal(b, (*plain)(m))
}

func (m Medication) IsEmpty() bool {
	return m.Name.IsEmpty() && m.Dosage.IsEmpty() && m.Frequency.IsEmpty() && m.Duration.IsEmpty()
}

// LabResult is one test with its measured value, unit and reference range.
// Status is one of Normal, High, Low or Critical.
type LabResult struct {
	Test           Text `json:"test"`
	MeasuredValue  Text `json:"measuredValue"`
	Unit           Text `json:"unit"`
	ReferenceRange Text `json:"referenceRange"`
	Status         Text `json:"status"`
	Method         Text `json:"method"`
	Notes          Text `json:"notes"`
}

func (l LabResult) IsEmpty() bool {
	return l.Test.IsEmpty() && l.MeasuredValue.IsEmpty() && l.Unit.IsEmpty() &&
		l.ReferenceRange.IsEmpty() && l.Status.IsEmpty() && l.Method.IsEmpty() && l.Notes.IsEmpty()
}

type VitalSigns struct {
	BloodPressure    Text `json:"bloodPressure"`
	HeartRate        Text `json:"heartRate"`
	Temperature      Text `json:"temperature"`
	RespiratoryRate  Text `json:"respiratoryRate"`
	OxygenSaturation Text `json:"oxygenSaturation"`
	Weight           Text `json:"weight"`
	Height           Text `json:"height"`
	BMI              Text `json:"bmi"`
}

// Pairs returns the non-empty vitals in a fixed key order.
func (v VitalSigns) Pairs() []VitalSign {
	all := []VitalSign{
		{Key: "bloodPressure", Value: v.BloodPressure},
		{Key: "heartRate", Value: v.HeartRate},
		{Key: "temperature", Value: v.Temperature},
		{Key: "respiratoryRate", Value: v.RespiratoryRate},
		{Key: "oxygenSaturation", Value: v.OxygenSaturation},
		{Key: "weight", Value: v.Weight},
		{Key: "height", Value: v.Height},
		{Key: "bmi", Value: v.BMI},
	}
	out := all[:0]
	for _, p := range all {
		if !p.Value.IsEmpty() {
			out = append(out, p)
		}
	}
	return out
}

type TreatmentPlan struct {
	DietaryAdvice        Text `json:"dietaryAdvice"`
	ActivityRestrictions Text `json:"activityRestrictions"`
	FollowUpInstructions Text `json:"followUpInstructions"`
	FollowUpDate         Text `json:"followUpDate"`
	SpecialInstructions  Text `json:"specialInstructions"`
}

type BillingInfo struct {
	TotalAmount      Text             `json:"totalAmount"`
	ConsultationFee  Text             `json:"consultationFee"`
	RoomCharges      Text             `json:"roomCharges"`
	ProcedureCosts   []ProcedureCost  `json:"procedureCosts"`
	MedicationCosts  []MedicationCost `json:"medicationCosts"`
	LabTestCosts     []LabTestCost    `json:"labTestCosts"`
	OtherCharges     []OtherCharge    `json:"otherCharges"`
	Subtotal         Text             `json:"subtotal"`
	Discount         Text             `json:"discount"`
	TaxAmount        Text             `json:"taxAmount"`
	InsuranceCovered Text             `json:"insuranceCovered"`
	PatientPayable   Text             `json:"patientPayable"`
	PaymentStatus    Text             `json:"paymentStatus"`
	PaymentMethod    Text             `json:"paymentMethod"`
	InvoiceNumber    Text             `json:"invoiceNumber"`
	ReceiptNumber    Text             `json:"receiptNumber"`
}

type ProcedureCost struct {
	Procedure Text `json:"procedure"`
	Cost      Text `json:"cost"`
}

func (c ProcedureCost) IsEmpty() bool { return c.Procedure.IsEmpty() && c.Cost.IsEmpty() }

type MedicationCost struct {
	Medication Text `json:"medication"`
	Cost       Text `json:"cost"`
}

func (c MedicationCost) IsEmpty() bool { return c.Medication.IsEmpty() && c.Cost.IsEmpty() }

type LabTestCost struct {
	Test Text `json:"test"`
	Cost Text `json:"cost"`
}

func (c LabTestCost) IsEmpty() bool { return c.Test.IsEmpty() && c.Cost.IsEmpty() }

type OtherCharge struct {
	Description Text `json:"description"`
	Amount      Text `json:"amount"`
}

func (c OtherCharge) IsEmpty() bool { return c.Description.IsEmpty() && c.Amount.IsEmpty() }

type ImagingAndTests struct {
	ImagingStudies   []ImagingStudy    `json:"imagingStudies"`
	PathologyReports []PathologyReport `json:"pathologyReports"`
}

type ImagingStudy struct {
	Type     Text `json:"type"`
	BodyPart Text `json:"bodyPart"`
	Findings Text `json:"findings"`
	Date     Text `json:"date"`
}

func (s ImagingStudy) IsEmpty() bool {
	return s.Type.IsEmpty() && s.BodyPart.IsEmpty() && s.Findings.IsEmpty() && s.Date.IsEmpty()
}

type PathologyReport struct {
	Test     Text `json:"test"`
	Specimen Text `json:"specimen"`
	Findings Text `json:"findings"`
	Date     Text `json:"date"`
}

func (r PathologyReport) IsEmpty() bool {
	return r.Test.IsEmpty() && r.Specimen.IsEmpty() && r.Findings.IsEmpty() && r.Date.IsEmpty()
}

// AdditionalField is a label/value pair the model found outside the fixed schema.
type AdditionalField struct {
	FieldName  Text `json:"fieldName"`
	FieldValue Text `json:"fieldValue"`
}

func (f AdditionalField) IsEmpty() bool { return f.FieldName.IsEmpty() && f.FieldValue.IsEmpty() }

type ExtractionMetadata struct {
	ConfidenceScore     Score    `json:"confidenceScore"`
	ConfidenceReasoning Text     `json:"confidenceReasoning"`
	DataQuality         Text     `json:"dataQuality"`
	LegibilityIssues    TextList `json:"legibilityIssues"`
}

// FailedPage returns the all-null stub recorded for a page that could not be
// extracted. reason becomes the page summary and the confidence is zero.
func FailedPage(reason string) PageExtraction {
	p := PageExtraction{
		DocumentSummary:    Text(reason),
		ExtractionMetadata: ExtractionMetadata{ConfidenceScore: ScoreOf(0)},
	}
	p.Normalize()
	return p
}

// Normalize replaces nil lists with empty ones so every list encodes as [].
func (p *PageExtraction) Normalize() {
	p.ClinicalData.Procedures = nonNil(p.ClinicalData.Procedures)
	p.ClinicalData.Medications = nonNil(p.ClinicalData.Medications)
	p.ClinicalData.LabResults = nonNil(p.ClinicalData.LabResults)
	p.BillingInfo.ProcedureCosts = nonNil(p.BillingInfo.ProcedureCosts)
	p.BillingInfo.MedicationCosts = nonNil(p.BillingInfo.MedicationCosts)
	p.BillingInfo.LabTestCosts = nonNil(p.BillingInfo.LabTestCosts)
	p.BillingInfo.OtherCharges = nonNil(p.BillingInfo.OtherCharges)
	p.ImagingAndTests.ImagingStudies = nonNil(p.ImagingAndTests.ImagingStudies)
	p.ImagingAndTests.PathologyReports = nonNil(p.ImagingAndTests.PathologyReports)
	p.AdditionalData = nonNil(p.AdditionalData)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
