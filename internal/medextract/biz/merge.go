package biz

import (
	"fmt"
	"strings"

	"github.com/kart-io/medextract/internal/model"
	"github.com/kart-io/medextract/pkg/utils/json"
)

type (
	merged  = model.MergedDocument
	pageExt = model.PageExtraction
)

// mergeRule folds one field of every page into the merged document.
type mergeRule struct {
	field string
	apply func(dst *merged, pages []pageExt)
}

type emptier interface {
	IsEmpty() bool
}

// firstText keeps the first non-empty value in page order.
func firstText(field string, dst func(*merged) *model.Text, src func(*pageExt) model.Text) mergeRule {
	return mergeRule{field: field, apply: func(d *merged, pages []pageExt) {
		for i := range pages {
			if v := src(&pages[i]); !v.IsEmpty() {
				*dst(d) = v
				return
			}
		}
	}}
}

// union concatenates the per-page lists in page order, dropping empty entries
// and structural duplicates while keeping the first occurrence.
func union[T any](field string, dst func(*merged) *[]T, src func(*pageExt) []T) mergeRule {
	return mergeRule{field: field, apply: func(d *merged, pages []pageExt) {
		lists := make([][]T, len(pages))
		for i := range pages {
			lists[i] = src(&pages[i])
		}
		*dst(d) = unionOf(lists...)
	}}
}

func textUnion(field string, dst func(*merged) *model.TextList, src func(*pageExt) []model.Text) mergeRule {
	return mergeRule{field: field, apply: func(d *merged, pages []pageExt) {
		lists := make([][]model.Text, len(pages))
		for i := range pages {
			lists[i] = src(&pages[i])
		}
		*dst(d) = unionOf(lists...)
	}}
}

func unionOf[T any](lists ...[]T) []T {
	out := []T{}
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, item := range list {
			if e, ok := any(item).(emptier); ok && e.IsEmpty() {
				continue
			}
			key := dedupKey(item)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

func dedupKey(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}

func one(t model.Text) []model.Text {
	return []model.Text{t}
}

var mergeRules = []mergeRule{
	firstText("patient.name", func(d *merged) *model.Text { return &d.Patient.Name }, func(p *pageExt) model.Text { return p.PatientInfo.FullName }),
	firstText("patient.dateOfBirth", func(d *merged) *model.Text { return &d.Patient.DateOfBirth }, func(p *pageExt) model.Text { return p.PatientInfo.DateOfBirth }),
	firstText("patient.age", func(d *merged) *model.Text { return &d.Patient.Age }, func(p *pageExt) model.Text { return p.PatientInfo.Age }),
	firstText("patient.gender", func(d *merged) *model.Text { return &d.Patient.Gender }, func(p *pageExt) model.Text { return p.PatientInfo.Gender }),
	firstText("patient.mrNumber", func(d *merged) *model.Text { return &d.Patient.MRNumber }, func(p *pageExt) model.Text { return p.PatientInfo.MedicalRecordNumber }),
	firstText("patient.ipNumber", func(d *merged) *model.Text { return &d.Patient.IPNumber }, func(p *pageExt) model.Text { return p.PatientInfo.IPAdmissionNumber }),

	firstText("document.type", func(d *merged) *model.Text { return &d.Document.Type }, func(p *pageExt) model.Text { return p.DocumentInfo.Type }),
	firstText("document.reportDate", func(d *merged) *model.Text { return &d.Document.ReportDate }, func(p *pageExt) model.Text { return p.DocumentInfo.ReportDate }),
	firstText("document.admissionDate", func(d *merged) *model.Text { return &d.Document.AdmissionDate }, func(p *pageExt) model.Text { return p.DocumentInfo.AdmissionDate }),
	firstText("document.dischargeDate", func(d *merged) *model.Text { return &d.Document.DischargeDate }, func(p *pageExt) model.Text { return p.DocumentInfo.DischargeDate }),

	firstText("hospital.name", func(d *merged) *model.Text { return &d.Hospital.Name }, func(p *pageExt) model.Text { return p.ProviderInfo.HospitalName }),
	firstText("hospital.department", func(d *merged) *model.Text { return &d.Hospital.Department }, func(p *pageExt) model.Text { return p.ProviderInfo.Department }),
	firstText("hospital.doctor", func(d *merged) *model.Text { return &d.Hospital.Doctor }, func(p *pageExt) model.Text { return p.ProviderInfo.DoctorName }),
	firstText("hospital.consultant", func(d *merged) *model.Text { return &d.Hospital.Consultant }, func(p *pageExt) model.Text { return p.ProviderInfo.ConsultantName }),
	textUnion("hospital.contactNumbers", func(d *merged) *model.TextList { return &d.Hospital.ContactNumbers }, func(p *pageExt) []model.Text { return p.ProviderInfo.ContactNumbers }),

	firstText("medical.chiefComplaint", func(d *merged) *model.Text { return &d.Medical.ChiefComplaint }, func(p *pageExt) model.Text { return p.ClinicalData.ChiefComplaint }),
	firstText("medical.diagnosis", func(d *merged) *model.Text { return &d.Medical.Diagnosis }, func(p *pageExt) model.Text { return p.ClinicalData.Diagnosis }),
	textUnion("medical.secondaryDiagnoses", func(d *merged) *model.TextList { return &d.Medical.SecondaryDiagnoses }, func(p *pageExt) []model.Text { return p.ClinicalData.SecondaryDiagnoses }),
	union("medical.procedures", func(d *merged) *[]model.Procedure { return &d.Medical.Procedures }, func(p *pageExt) []model.Procedure { return p.ClinicalData.Procedures }),
	union("medical.medications", func(d *merged) *[]model.Medication { return &d.Medical.Medications }, func(p *pageExt) []model.Medication { return p.ClinicalData.Medications }),
	union("medical.labResults", func(d *merged) *[]model.LabResult { return &d.Medical.LabResults }, func(p *pageExt) []model.LabResult { return p.ClinicalData.LabResults }),
	union("medical.vitalSigns", func(d *merged) *[]model.VitalSign { return &d.Medical.VitalSigns }, func(p *pageExt) []model.VitalSign { return p.ClinicalData.VitalSigns.Pairs() }),
	textUnion("medical.allergies", func(d *merged) *model.TextList { return &d.Medical.Allergies }, func(p *pageExt) []model.Text { return p.ClinicalData.Allergies }),
	firstText("medical.medicalHistory", func(d *merged) *model.Text { return &d.Medical.MedicalHistory }, func(p *pageExt) model.Text { return p.ClinicalData.MedicalHistory }),
	firstText("medical.familyHistory", func(d *merged) *model.Text { return &d.Medical.FamilyHistory }, func(p *pageExt) model.Text { return p.ClinicalData.FamilyHistory }),

	textUnion("treatment.dietaryAdvice", func(d *merged) *model.TextList { return &d.Treatment.DietaryAdvice }, func(p *pageExt) []model.Text { return one(p.TreatmentPlan.DietaryAdvice) }),
	textUnion("treatment.activityRestrictions", func(d *merged) *model.TextList { return &d.Treatment.ActivityRestrictions }, func(p *pageExt) []model.Text { return one(p.TreatmentPlan.ActivityRestrictions) }),
	textUnion("treatment.followUpInstructions", func(d *merged) *model.TextList { return &d.Treatment.FollowUpInstructions }, func(p *pageExt) []model.Text { return one(p.TreatmentPlan.FollowUpInstructions) }),
	firstText("treatment.followUpDate", func(d *merged) *model.Text { return &d.Treatment.FollowUpDate }, func(p *pageExt) model.Text { return p.TreatmentPlan.FollowUpDate }),
	textUnion("treatment.specialInstructions", func(d *merged) *model.TextList { return &d.Treatment.SpecialInstructions }, func(p *pageExt) []model.Text { return one(p.TreatmentPlan.SpecialInstructions) }),

	firstText("billing.totalAmount", func(d *merged) *model.Text { return &d.Billing.TotalAmount }, func(p *pageExt) model.Text { return p.BillingInfo.TotalAmount }),
	firstText("billing.consultationFee", func(d *merged) *model.Text { return &d.Billing.ConsultationFee }, func(p *pageExt) model.Text { return p.BillingInfo.ConsultationFee }),
	firstText("billing.roomCharges", func(d *merged) *model.Text { return &d.Billing.RoomCharges }, func(p *pageExt) model.Text { return p.BillingInfo.RoomCharges }),
	union("billing.procedureCosts", func(d *merged) *[]model.ProcedureCost { return &d.Billing.ProcedureCosts }, func(p *pageExt) []model.ProcedureCost { return p.BillingInfo.ProcedureCosts }),
	union("billing.medicationCosts", func(d *merged) *[]model.MedicationCost { return &d.Billing.MedicationCosts }, func(p *pageExt) []model.MedicationCost { return p.BillingInfo.MedicationCosts }),
	union("billing.labTestCosts", func(d *merged) *[]model.LabTestCost { return &d.Billing.LabTestCosts }, func(p *pageExt) []model.LabTestCost { return p.BillingInfo.LabTestCosts }),
	union("billing.otherCharges", func(d *merged) *[]model.OtherCharge { return &d.Billing.OtherCharges }, func(p *pageExt) []model.OtherCharge { return p.BillingInfo.OtherCharges }),
	firstText("billing.subtotal", func(d *merged) *model.Text { return &d.Billing.Subtotal }, func(p *pageExt) model.Text { return p.BillingInfo.Subtotal }),
	firstText("billing.discount", func(d *merged) *model.Text { return &d.Billing.Discount }, func(p *pageExt) model.Text { return p.BillingInfo.Discount }),
	firstText("billing.taxAmount", func(d *merged) *model.Text { return &d.Billing.TaxAmount }, func(p *pageExt) model.Text { return p.BillingInfo.TaxAmount }),
	firstText("billing.insuranceCovered", func(d *merged) *model.Text { return &d.Billing.InsuranceCovered }, func(p *pageExt) model.Text { return p.BillingInfo.InsuranceCovered }),
	firstText("billing.patientPayable", func(d *merged) *model.Text { return &d.Billing.PatientPayable }, func(p *pageExt) model.Text { return p.BillingInfo.PatientPayable }),
	firstText("billing.paymentStatus", func(d *merged) *model.Text { return &d.Billing.PaymentStatus }, func(p *pageExt) model.Text { return p.BillingInfo.PaymentStatus }),
	firstText("billing.paymentMethod", func(d *merged) *model.Text { return &d.Billing.PaymentMethod }, func(p *pageExt) model.Text { return p.BillingInfo.PaymentMethod }),
	firstText("billing.invoiceNumber", func(d *merged) *model.Text { return &d.Billing.InvoiceNumber }, func(p *pageExt) model.Text { return p.BillingInfo.InvoiceNumber }),
	firstText("billing.receiptNumber", func(d *merged) *model.Text { return &d.Billing.ReceiptNumber }, func(p *pageExt) model.Text { return p.BillingInfo.ReceiptNumber }),

	union("imaging.imagingStudies", func(d *merged) *[]model.ImagingStudy { return &d.Imaging.ImagingStudies }, func(p *pageExt) []model.ImagingStudy { return p.ImagingAndTests.ImagingStudies }),
	union("imaging.pathologyReports", func(d *merged) *[]model.PathologyReport { return &d.Imaging.PathologyReports }, func(p *pageExt) []model.PathologyReport { return p.ImagingAndTests.PathologyReports }),

	// additional fields are kept verbatim, repeats included
	{field: "additionalFields", apply: func(d *merged, pages []pageExt) {
		d.AdditionalFields = []model.AdditionalField{}
		for i := range pages {
			d.AdditionalFields = append(d.AdditionalFields, pages[i].AdditionalData...)
		}
	}},
	{field: "summary", apply: func(d *merged, pages []pageExt) {
		lines := make([]string, 0, len(pages))
		for i := range pages {
			if s := pages[i].DocumentSummary; !s.IsEmpty() {
				lines = append(lines, fmt.Sprintf("Page %d: %s", i+1, s.String()))
			}
		}
		d.Summary = strings.Join(lines, "\n\n")
	}},
}

// Merge combines the page extractions, in page order, into one document.
// Scalars take the first non-empty value; lists are unioned without duplicates.
// The result depends only on pages and never mutates them.
func Merge(pages []model.PageExtraction) *model.MergedDocument {
	d := &model.MergedDocument{
		RawPages: append([]model.PageExtraction{}, pages...),
	}
	for _, r := range mergeRules {
		r.apply(d, pages)
	}
	return d
}
