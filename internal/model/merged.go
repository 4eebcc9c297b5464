package model

// MergedDocument is the normalized record built from every page of a document.
type MergedDocument struct {
	Patient          MergedPatient      `json:"patient"`
	Document         MergedDocumentInfo `json:"document"`
	Hospital         MergedHospital     `json:"hospital"`
	Medical          MergedMedical      `json:"medical"`
	Treatment        MergedTreatment    `json:"treatment"`
	Billing          BillingInfo        `json:"billing"`
	Imaging          ImagingAndTests    `json:"imaging"`
	AdditionalFields []AdditionalField  `json:"additionalFields"`
	Summary          string             `json:"summary"`
	RawPages         []PageExtraction   `json:"rawPages"`
}

type MergedPatient struct {
	Name        Text `json:"name"`
	DateOfBirth Text `json:"dateOfBirth"`
	Age         Text `json:"age"`
	Gender      Text `json:"gender"`
	MRNumber    Text `json:"mrNumber"`
	IPNumber    Text `json:"ipNumber"`
}

type MergedDocumentInfo struct {
	Type          Text `json:"type"`
	ReportDate    Text `json:"reportDate"`
	AdmissionDate Text `json:"admissionDate"`
	DischargeDate Text `json:"dischargeDate"`
}

type MergedHospital struct {
	Name           Text     `json:"name"`
	Department     Text     `json:"department"`
	Doctor         Text     `json:"doctor"`
	Consultant     Text     `json:"consultant"`
	ContactNumbers TextList `json:"contactNumbers"`
}

type MergedMedical struct {
	ChiefComplaint     Text         `json:"chiefComplaint"`
	Diagnosis          Text         `json:"diagnosis"`
	SecondaryDiagnoses TextList     `json:"secondaryDiagnoses"`
	Procedures         []Procedure  `json:"procedures"`
	Medications        []Medication `json:"medications"`
	LabResults         []LabResult  `json:"labResults"`
	VitalSigns         []VitalSign  `json:"vitalSigns"`
	Allergies          TextList     `json:"allergies"`
	MedicalHistory     Text         `json:"medicalHistory"`
	FamilyHistory      Text         `json:"familyHistory"`
}

// VitalSign is one flattened vital reading, e.g. {"heartRate", "72 bpm"}.
type VitalSign struct {
	Key   string `json:"key"`
	Value Text   `json:"value"`
}

func (v VitalSign) IsEmpty() bool { return v.Value.IsEmpty() }

type MergedTreatment struct {
	DietaryAdvice        TextList `json:"dietaryAdvice"`
	ActivityRestrictions TextList `json:"activityRestrictions"`
	FollowUpInstructions TextList `json:"followUpInstructions"`
	FollowUpDate         Text     `json:"followUpDate"`
	SpecialInstructions  TextList `json:"specialInstructions"`
}

// Field is one label/value row of the flat display projection.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
