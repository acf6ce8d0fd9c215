package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/careboard/careboard/internal/config"
	"github.com/careboard/careboard/internal/domain/alert"
	"github.com/careboard/careboard/internal/domain/labs"
	"github.com/careboard/careboard/internal/domain/patient"
	"github.com/careboard/careboard/internal/domain/prescription"
	"github.com/careboard/careboard/internal/domain/staff"
	"github.com/careboard/careboard/internal/domain/vitals"
	"github.com/careboard/careboard/internal/platform/authz"
	"github.com/careboard/careboard/internal/platform/db"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo staff and patient data into a tenant schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, _ := cmd.Flags().GetString("tenant")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			conn, err := pool.Acquire(ctx)
			if err != nil {
				return fmt.Errorf("acquire connection: %w", err)
			}
			defer conn.Release()

			if _, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO tenant_%s, shared, public", tenant)); err != nil {
				return fmt.Errorf("set search_path: %w", err)
			}
			// Repositories pick the pinned connection up from the context, so
			// every insert lands in the tenant schema.
			ctx = context.WithValue(ctx, db.DBConnKey, conn)

			return seed(ctx, pool)
		},
	}
	cmd.Flags().String("tenant", "default", "Tenant identifier to seed")
	return cmd
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func seed(ctx context.Context, pool *pgxpool.Pool) error {
	staffSvc := staff.NewService(staff.NewRepoPG(pool))
	patientSvc := patient.NewService(patient.NewRepoPG(pool))
	vitalsSvc := vitals.NewService(vitals.NewRepoPG(pool))
	labsSvc := labs.NewService(labs.NewRepoPG(pool))
	rxSvc := prescription.NewService(prescription.NewRepoPG(pool))
	alertSvc := alert.NewService(alert.NewRepoPG(pool))

	members := []*staff.Member{
		{Email: "admin@careboard.example", FullName: "Sarah Anderson", Role: authz.RoleAdmin},
		{Email: "dr.smith@careboard.example", FullName: "James Smith", Role: authz.RoleDoctor},
		{Email: "dr.patel@careboard.example", FullName: "Priya Patel", Role: authz.RoleDoctor},
		{Email: "nurse.williams@careboard.example", FullName: "Maria Williams", Role: authz.RoleNurse},
		{Email: "nurse.johnson@careboard.example", FullName: "Robert Johnson", Role: authz.RoleNurse},
		{Email: "lab.chen@careboard.example", FullName: "David Chen", Role: authz.RoleLabTechnician},
		{Email: "pharm.garcia@careboard.example", FullName: "Carlos Garcia", Role: authz.RolePharmacist},
		{Email: "reception@careboard.example", FullName: "Jennifer Lee", Role: authz.RoleReceptionist},
	}
	for _, m := range members {
		if err := staffSvc.Create(ctx, m); err != nil {
			return fmt.Errorf("seed staff %s: %w", m.Email, err)
		}
	}
	fmt.Printf("Seeded %d staff members.\n", len(members))

	doctor := members[1]
	nurse := members[3]
	labTech := members[5]

	date := func(y, m, d int) time.Time {
		return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	}

	patients := []*patient.Patient{
		{
			MRN: "MRN-001", FirstName: "John", LastName: "Anderson",
			DateOfBirth: date(1955, 3, 15), Gender: "M", BloodType: strPtr("O+"),
			Allergies:             []string{"Penicillin"},
			ChronicConditions:     []string{"Type 2 Diabetes", "Hypertension"},
			EmergencyContactName:  strPtr("Mary Johnson"),
			EmergencyContactPhone: strPtr("555-0101"),
			InsuranceProvider:     strPtr("Blue Cross"),
			InsuranceMemberID:     strPtr("BC123456"),
			PrimaryPhysicianID:    &doctor.ID,
		},
		{
			MRN: "MRN-002", FirstName: "Sarah", LastName: "Johnson",
			DateOfBirth: date(1962, 7, 22), Gender: "F", BloodType: strPtr("A+"),
			Allergies:             []string{"Sulfa drugs"},
			ChronicConditions:     []string{"Asthma", "GERD"},
			EmergencyContactName:  strPtr("John Martinez"),
			EmergencyContactPhone: strPtr("555-0102"),
			InsuranceProvider:     strPtr("Aetna"),
			InsuranceMemberID:     strPtr("AE654321"),
			PrimaryPhysicianID:    &doctor.ID,
		},
		{
			MRN: "MRN-003", FirstName: "Michael", LastName: "Davis",
			DateOfBirth: date(1948, 11, 8), Gender: "M", BloodType: strPtr("B+"),
			ChronicConditions:     []string{"COPD", "Heart Failure"},
			EmergencyContactName:  strPtr("Susan Brown"),
			EmergencyContactPhone: strPtr("555-0103"),
			InsuranceProvider:     strPtr("United Health"),
			InsuranceMemberID:     strPtr("UH987654"),
			PrimaryPhysicianID:    &doctor.ID,
		},
		{
			MRN: "MRN-004", FirstName: "Emily", LastName: "Wilson",
			DateOfBirth: date(1970, 5, 19), Gender: "F", BloodType: strPtr("AB-"),
			ChronicConditions:     []string{"Hypothyroidism", "Migraine"},
			EmergencyContactName:  strPtr("David Lee"),
			EmergencyContactPhone: strPtr("555-0104"),
			InsuranceProvider:     strPtr("Cigna"),
			InsuranceMemberID:     strPtr("CI789012"),
			PrimaryPhysicianID:    &doctor.ID,
		},
		{
			MRN: "MRN-005", FirstName: "Robert", LastName: "Brown",
			DateOfBirth: date(1985, 9, 30), Gender: "M", BloodType: strPtr("O-"),
			ChronicConditions:     []string{"Type 1 Diabetes", "Celiac Disease"},
			EmergencyContactName:  strPtr("Emma Taylor"),
			EmergencyContactPhone: strPtr("555-0105"),
			InsuranceProvider:     strPtr("Blue Cross"),
			InsuranceMemberID:     strPtr("BC345678"),
			PrimaryPhysicianID:    &doctor.ID,
		},
	}
	for _, p := range patients {
		if err := patientSvc.Create(ctx, p); err != nil {
			return fmt.Errorf("seed patient %s: %w", p.MRN, err)
		}
	}
	fmt.Printf("Seeded %d patients.\n", len(patients))

	now := time.Now().UTC()
	for i, p := range patients {
		measurements := []vitals.VitalSign{
			{Type: "temperature", Value: 36.6 + float64(i)*0.2},
			{Type: "heart_rate", Value: 68 + float64(i*4)},
			{Type: "systolic_bp", Value: 118 + float64(i*6)},
			{Type: "diastolic_bp", Value: 76 + float64(i*2)},
			{Type: "oxygen_saturation", Value: 98 - float64(i)},
		}
		for j, v := range measurements {
			v.PatientID = p.ID
			v.RecordedBy = nurse.ID
			v.MeasuredAt = now.Add(-time.Duration(j) * time.Hour)
			if err := vitalsSvc.Record(ctx, &v); err != nil {
				return fmt.Errorf("seed vitals for %s: %w", p.MRN, err)
			}
		}
	}
	fmt.Println("Seeded vital signs.")

	labResults := []labs.Result{
		{PatientID: patients[0].ID, TestName: "HbA1c", Category: "chemistry", Value: floatPtr(7.8),
			Unit: strPtr("%"), ReferenceRange: strPtr("4.0-5.6"), Status: "abnormal"},
		{PatientID: patients[0].ID, TestName: "Fasting Glucose", Category: "chemistry", Value: floatPtr(142),
			Unit: strPtr("mg/dL"), ReferenceRange: strPtr("70-99"), Status: "abnormal"},
		{PatientID: patients[1].ID, TestName: "Complete Blood Count", Category: "hematology",
			ResultText: strPtr("WBC 6.8, RBC 4.5, Hgb 13.2"), Status: "normal"},
		{PatientID: patients[2].ID, TestName: "BNP", Category: "chemistry", Value: floatPtr(890),
			Unit: strPtr("pg/mL"), ReferenceRange: strPtr("<100"), Status: "critical"},
		{PatientID: patients[3].ID, TestName: "TSH", Category: "chemistry", Value: floatPtr(6.2),
			Unit: strPtr("mIU/L"), ReferenceRange: strPtr("0.4-4.0"), Status: "abnormal"},
	}
	for i := range labResults {
		labResults[i].OrderedBy = labTech.ID
		if err := labsSvc.Create(ctx, &labResults[i]); err != nil {
			return fmt.Errorf("seed lab result %s: %w", labResults[i].TestName, err)
		}
	}
	fmt.Printf("Seeded %d lab results.\n", len(labResults))

	prescriptions := []prescription.Prescription{
		{PatientID: patients[0].ID, MedicationName: "Metformin", Dosage: "1000mg", Frequency: "twice daily",
			Indication: strPtr("Type 2 Diabetes"), RefillsRemaining: 3},
		{PatientID: patients[0].ID, MedicationName: "Lisinopril", Dosage: "10mg", Frequency: "once daily",
			Indication: strPtr("Hypertension"), RefillsRemaining: 5},
		{PatientID: patients[1].ID, MedicationName: "Albuterol", Dosage: "90mcg", Frequency: "as needed",
			Route: "inhalation", Indication: strPtr("Asthma"), RefillsRemaining: 2},
		{PatientID: patients[2].ID, MedicationName: "Furosemide", Dosage: "40mg", Frequency: "once daily",
			Indication: strPtr("Heart Failure"), RefillsRemaining: 1},
		{PatientID: patients[3].ID, MedicationName: "Levothyroxine", Dosage: "75mcg", Frequency: "once daily",
			Indication: strPtr("Hypothyroidism"), RefillsRemaining: 6},
	}
	for i := range prescriptions {
		prescriptions[i].PrescribedBy = doctor.ID
		if err := rxSvc.Create(ctx, &prescriptions[i]); err != nil {
			return fmt.Errorf("seed prescription %s: %w", prescriptions[i].MedicationName, err)
		}
	}
	fmt.Printf("Seeded %d prescriptions.\n", len(prescriptions))

	alerts := []alert.Alert{
		{PatientID: &patients[2].ID, AlertType: "lab_critical", Severity: "critical",
			Title: "Critically elevated BNP", Description: strPtr("BNP 890 pg/mL, suggests decompensated heart failure")},
		{PatientID: &patients[0].ID, AlertType: "vital_threshold", Severity: "high",
			Title: "Elevated blood pressure trend"},
		{AlertType: "device_offline", Severity: "low", Title: "Telemetry monitor 3 offline"},
	}
	for i := range alerts {
		alerts[i].CreatedBy = nurse.ID
		if err := alertSvc.Create(ctx, &alerts[i]); err != nil {
			return fmt.Errorf("seed alert %q: %w", alerts[i].Title, err)
		}
	}
	fmt.Printf("Seeded %d alerts.\n", len(alerts))

	return nil
}
