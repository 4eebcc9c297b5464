package biz

import (
	"fmt"
	"strings"
)

// ExtractionPromptVersion identifies the extraction prompt contract. Bump it
// whenever the requested JSON shape or instructions change.
const ExtractionPromptVersion = "2024-11.v3"

// RecommendationPromptVersion identifies the recommendation prompt contract.
const RecommendationPromptVersion = "2024-11.v1"

const extractionSchema = `{
  "patientInfo": {
    "fullName": "Complete patient name with title (Mr./Mrs./Ms.)",
    "dateOfBirth": "YYYY-MM-DD or null",
    "age": "Age with units (e.g. 45 years, 6 months) or null",
    "gender": "Male/Female/Other or null",
    "medicalRecordNumber": "MRN/UHID/Patient ID or null",
    "ipAdmissionNumber": "IP/Admission number or null"
  },
  "documentInfo": {
    "type": "Specific document type (e.g. Discharge Summary, Lab Report, Prescription, MRI Report)",
    "reportDate": "YYYY-MM-DD or null",
    "admissionDate": "YYYY-MM-DD or null",
    "dischargeDate": "YYYY-MM-DD or null"
  },
  "providerInfo": {
    "hospitalName": "Full hospital/clinic name or null",
    "department": "Department name or null",
    "doctorName": "Doctor name with title or null",
    "consultantName": "Consultant name if different from doctor or null",
    "contactNumbers": ["phone"]
  },
  "clinicalData": {
    "chiefComplaint": "Primary reason for visit or null",
    "diagnosis": "Primary diagnosis or null",
    "secondaryDiagnoses": ["diagnosis"],
    "procedures": [{"name": "", "date": "YYYY-MM-DD or null", "details": ""}],
    "medications": [{"name": "", "dosage": "", "frequency": "", "duration": ""}],
    "labResults": [{
      "test": "test name",
      "measuredValue": "result value",
      "unit": "measurement unit",
      "referenceRange": "reference range as printed",
      "status": "Normal/High/Low/Critical",
      "method": "test method or null",
      "notes": "notes or null"
    }],
    "vitalSigns": {
      "bloodPressure": null, "heartRate": null, "temperature": null, "respiratoryRate": null,
      "oxygenSaturation": null, "weight": null, "height": null, "bmi": null
    },
    "allergies": ["allergy"],
    "medicalHistory": "Relevant past history or null",
    "familyHistory": "Relevant family history or null"
  },
  "treatmentPlan": {
    "dietaryAdvice": null, "activityRestrictions": null, "followUpInstructions": null,
    "followUpDate": "YYYY-MM-DD or null", "specialInstructions": null
  },
  "billingInfo": {
    "totalAmount": "Amount with currency or null",
    "consultationFee": null, "roomCharges": null,
    "procedureCosts": [{"procedure": "", "cost": ""}],
    "medicationCosts": [{"medication": "", "cost": ""}],
    "labTestCosts": [{"test": "", "cost": ""}],
    "otherCharges": [{"description": "", "amount": ""}],
    "subtotal": null, "discount": null, "taxAmount": null, "insuranceCovered": null,
    "patientPayable": null, "paymentStatus": "Paid/Pending/Partial/Not Paid or null",
    "paymentMethod": null, "invoiceNumber": null, "receiptNumber": null
  },
  "imagingAndTests": {
    "imagingStudies": [{"type": "X-Ray/CT/MRI/Ultrasound", "bodyPart": "", "findings": "", "date": null}],
    "pathologyReports": [{"test": "", "specimen": "", "findings": "", "date": null}]
  },
  "additionalData": [{"fieldName": "Any other labelled field", "fieldValue": "value"}],
  "documentSummary": "2-3 sentence summary of this page",
  "extractionMetadata": {
    "confidenceScore": 0,
    "confidenceReasoning": "Why this confidence",
    "dataQuality": "Excellent/Good/Fair/Poor",
    "legibilityIssues": ["issue"]
  }
}`

const extractionInstructions = `LAB RESULTS: for every test extract measuredValue, unit and referenceRange exactly as printed,
then set status by comparing measuredValue with referenceRange: Normal, High, Low or Critical.

Use null for any value that is not visible and [] for empty lists. Do not invent values.

CONFIDENCE (0-100) in extractionMetadata.confidenceScore:
95-100 crystal clear and complete; 85-94 very clear with minor gaps; 70-84 mostly extractable;
50-69 significant portions unclear; 30-49 heavily degraded; 0-29 mostly illegible.`

// ExtractionPrompt returns the instruction text sent with page index (0-based) of total.
func ExtractionPrompt(index, total int) string {
	var b strings.Builder
	b.WriteString("You are an expert medical document parser that extracts structured data from healthcare documents.\n\n")
	fmt.Fprintf(&b, "TASK: Analyze this medical document page (page %d of %d) and extract ALL visible information.\n\n", index+1, total)
	b.WriteString("OUTPUT: Return ONLY a valid JSON object with exactly this structure. No markdown, no code fences, no commentary.\n\n")
	b.WriteString(extractionSchema)
	b.WriteString("\n\n")
	b.WriteString(extractionInstructions)
	b.WriteString("\n\nBegin extraction now. Return only the JSON object.")
	return b.String()
}

const recommendationSchema = `{
  "summary": "1-2 sentence overview of the patient's condition",
  "recommendations": [
    {
      "category": "medication|lifestyle|followup|monitoring|diet|exercise",
      "priority": "high|medium|low",
      "recommendation": "Complete actionable recommendation",
      "reason": "Medical reasoning"
    }
  ],
  "warnings": [
    {"severity": "critical|high|medium|low", "warning": "Risk to be aware of", "action": "What to do about it"}
  ],
  "nextSteps": ["Concrete action item"]
}`

// RecommendationPrompt returns the advisory prompt for the given clinical data JSON.
func RecommendationPrompt(clinicalJSON string) string {
	var b strings.Builder
	b.WriteString("You are a medical assistant reviewing patient health data. Based on the information below, ")
	b.WriteString("provide specific, actionable and evidence-based health recommendations.\n\n")
	b.WriteString("Patient Medical Data:\n")
	b.WriteString(clinicalJSON)
	b.WriteString("\n\nRespond with JSON in this structure:\n")
	b.WriteString(recommendationSchema)
	b.WriteString(`

Guidelines:
- Base recommendations only on the provided data
- Consider drug interactions when several medications are present
- Flag concerning lab values or vital signs
- Prioritize patient safety
- Give 3-7 recommendations written as complete sentences`)
	return b.String()
}
