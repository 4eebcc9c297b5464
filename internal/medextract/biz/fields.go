package biz

import (
	"fmt"
	"strings"

	"github.com/kart-io/medextract/internal/model"
)

const (
	notProvided  = "Not provided"
	notSpecified = "Not specified"
	noneListed   = "None listed"
)

// ProjectFields flattens a merged document into the ordered label/value rows
// shown to users, followed by any additional fields the model reported.
func ProjectFields(d *model.MergedDocument) []model.Field {
	if d == nil {
		return []model.Field{}
	}
	m, t, b, img := d.Medical, d.Treatment, d.Billing, d.Imaging

	fields := []model.Field{
		{Label: "Patient Name", Value: PatientName(d)},
		{Label: "Document Type", Value: DocumentType(d)},
		{Label: "Hospital", Value: d.Hospital.Name.Or("Unknown")},
		{Label: "Department", Value: d.Hospital.Department.Or(notSpecified)},
		{Label: "Doctor/Consultant", Value: d.Hospital.Doctor.Or(notSpecified)},
		{Label: "Report Date", Value: d.Document.ReportDate.Or(notProvided)},
		{Label: "MR Number", Value: d.Patient.MRNumber.Or(notProvided)},
		{Label: "IP Number", Value: d.Patient.IPNumber.Or(notProvided)},
		{Label: "Date of Birth", Value: d.Patient.DateOfBirth.Or(notProvided)},
		{Label: "Age", Value: d.Patient.Age.Or(notProvided)},
		{Label: "Gender", Value: d.Patient.Gender.Or(notSpecified)},
		{Label: "Admission Date", Value: d.Document.AdmissionDate.Or(notProvided)},
		{Label: "Discharge Date", Value: d.Document.DischargeDate.Or(notProvided)},
		{Label: "Chief Complaint", Value: m.ChiefComplaint.Or(notProvided)},
		{Label: "Diagnosis", Value: m.Diagnosis.Or(notProvided)},
		{Label: "Secondary Diagnoses", Value: joinOr(m.SecondaryDiagnoses.Strings(), "; ", noneListed)},
		{Label: "Procedures", Value: joinOr(mapItems(m.Procedures, func(p model.Procedure) string {
			return withDetail(p.Name, p.Date)
		}), "; ", noneListed)},
		{Label: "Medications", Value: joinOr(mapItems(m.Medications, func(med model.Medication) string {
			return withDetail(med.Name, med.Dosage)
		}), "; ", noneListed)},
		{Label: "Lab Results", Value: joinOr(mapItems(m.LabResults, formatLabResult), "; ", noneListed)},
		{Label: "Vital Signs", Value: joinOr(mapItems(m.VitalSigns, func(v model.VitalSign) string {
			return v.Key + ": " + v.Value.String()
		}), "; ", noneListed)},
		{Label: "Allergies", Value: joinOr(m.Allergies.Strings(), ", ", noneListed)},
		{Label: "Medical History", Value: m.MedicalHistory.Or(notProvided)},
		{Label: "Family History", Value: m.FamilyHistory.Or(notProvided)},
		{Label: "Dietary Advice", Value: joinOr(t.DietaryAdvice.Strings(), "; ", notProvided)},
		{Label: "Activity Restrictions", Value: joinOr(t.ActivityRestrictions.Strings(), "; ", notProvided)},
		{Label: "Follow-up Instructions", Value: joinOr(t.FollowUpInstructions.Strings(), "; ", notProvided)},
		{Label: "Follow-up Date", Value: t.FollowUpDate.Or(notProvided)},
		{Label: "Special Instructions", Value: joinOr(t.SpecialInstructions.Strings(), "; ", notProvided)},
		{Label: "Total Bill Amount", Value: b.TotalAmount.Or(notProvided)},
		{Label: "Consultation Fee", Value: b.ConsultationFee.Or(notProvided)},
		{Label: "Room Charges", Value: b.RoomCharges.Or(notProvided)},
		{Label: "Procedure Costs", Value: joinOr(mapItems(b.ProcedureCosts, func(c model.ProcedureCost) string {
			return labelled(c.Procedure, c.Cost)
		}), "; ", notProvided)},
		{Label: "Medication Costs", Value: joinOr(mapItems(b.MedicationCosts, func(c model.MedicationCost) string {
			return labelled(c.Medication, c.Cost)
		}), "; ", notProvided)},
		{Label: "Lab Test Costs", Value: joinOr(mapItems(b.LabTestCosts, func(c model.LabTestCost) string {
			return labelled(c.Test, c.Cost)
		}), "; ", notProvided)},
		{Label: "Other Charges", Value: joinOr(mapItems(b.OtherCharges, func(c model.OtherCharge) string {
			return labelled(c.Description, c.Amount)
		}), "; ", notProvided)},
		{Label: "Subtotal", Value: b.Subtotal.Or(notProvided)},
		{Label: "Discount", Value: b.Discount.Or(notProvided)},
		{Label: "Tax Amount", Value: b.TaxAmount.Or(notProvided)},
		{Label: "Insurance Covered", Value: b.InsuranceCovered.Or(notProvided)},
		{Label: "Patient Payable", Value: b.PatientPayable.Or(notProvided)},
		{Label: "Payment Status", Value: b.PaymentStatus.Or(notProvided)},
		{Label: "Payment Method", Value: b.PaymentMethod.Or(notProvided)},
		{Label: "Invoice Number", Value: b.InvoiceNumber.Or(notProvided)},
		{Label: "Receipt Number", Value: b.ReceiptNumber.Or(notProvided)},
		{Label: "Imaging Studies", Value: joinOr(mapItems(img.ImagingStudies, func(s model.ImagingStudy) string {
			return withDetail(s.Type, s.BodyPart)
		}), "; ", noneListed)},
		{Label: "Pathology Reports", Value: joinOr(mapItems(img.PathologyReports, func(r model.PathologyReport) string {
			return withDetail(r.Test, r.Specimen)
		}), "; ", noneListed)},
	}

	for _, f := range d.AdditionalFields {
		if f.FieldName.IsEmpty() {
			continue
		}
		fields = append(fields, model.Field{Label: f.FieldName.String(), Value: f.FieldValue.Or(notProvided)})
	}
	return fields
}

// PatientName returns the merged patient name or "Unknown".
func PatientName(d *model.MergedDocument) string {
	if d == nil {
		return model.DefaultPatientName
	}
	return d.Patient.Name.Or(model.DefaultPatientName)
}

// DocumentType returns the merged document type or "Medical Document".
func DocumentType(d *model.MergedDocument) string {
	if d == nil {
		return model.DefaultDocumentType
	}
	return d.Document.Type.Or(model.DefaultDocumentType)
}

// SearchText builds the lower-cased text indexed for document search.
func SearchText(d *model.MergedDocument) string {
	if d == nil {
		return ""
	}
	parts := []string{
		PatientName(d),
		DocumentType(d),
		d.Medical.Diagnosis.String(),
		d.Hospital.Name.String(),
		d.Hospital.Doctor.String(),
		d.Summary,
	}
	parts = append(parts, d.Medical.SecondaryDiagnoses.Strings()...)
	for _, med := range d.Medical.Medications {
		parts = append(parts, med.Name.String())
	}
	return strings.ToLower(joinOr(nonEmpty(parts), " ", ""))
}

func formatLabResult(r model.LabResult) string {
	s := r.Test.String()
	if !r.MeasuredValue.IsEmpty() {
		s = fmt.Sprintf("%s: %s", s, r.MeasuredValue.String())
	}
	if !r.Unit.IsEmpty() {
		s = fmt.Sprintf("%s (%s)", s, r.Unit.String())
	}
	return s
}

// withDetail renders "name (detail)", omitting the parentheses when detail is empty.
func withDetail(name, detail model.Text) string {
	if detail.IsEmpty() {
		return name.String()
	}
	return fmt.Sprintf("%s (%s)", name.String(), detail.String())
}

// labelled renders "label: value".
func labelled(label, value model.Text) string {
	if value.IsEmpty() {
		return label.String()
	}
	return fmt.Sprintf("%s: %s", label.String(), value.String())
}

func mapItems[T any](items []T, f func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(f(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nonEmpty(ss []string) []string {
	out := ss[:0:0]
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func joinOr(items []string, sep, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, sep)
}
