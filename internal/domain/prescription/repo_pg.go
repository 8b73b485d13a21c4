package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgRepo stores the nested section lists as jsonb; the columns queried by
// the list contracts (patient_id, created_at) stay relational.
type pgRepo struct{ pool *pgxpool.Pool }

func NewPGRepo(pool *pgxpool.Pool) Repository {
	return &pgRepo{pool: pool}
}

const prescriptionCols = `id, patient_id, patient_snapshot, doctor_info, complaints,
	chronic_diseases, vitals, diagnosis, tests, medicines,
	general_advice, surgery_advice, follow_up, created_at, updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.PatientSnapshot, &p.DoctorInfo, &p.Complaints,
		&p.ChronicDiseases, &p.Vitals, &p.Diagnosis, &p.Tests, &p.Medicines,
		&p.GeneralAdvice, &p.SurgeryAdvice, &p.FollowUp, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgRepo) Add(ctx context.Context, p *Prescription) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO prescription (id, patient_id, patient_snapshot, doctor_info, complaints,
			chronic_diseases, vitals, diagnosis, tests, medicines,
			general_advice, surgery_advice, follow_up, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		p.ID, p.PatientID, p.PatientSnapshot, p.DoctorInfo, p.Complaints,
		p.ChronicDiseases, p.Vitals, p.Diagnosis, p.Tests, p.Medicines,
		p.GeneralAdvice, p.SurgeryAdvice, p.FollowUp, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *pgRepo) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.pool.QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescription WHERE id = $1`, id))
}

func (r *pgRepo) Update(ctx context.Context, p *Prescription) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE prescription SET patient_id=$2, patient_snapshot=$3, doctor_info=$4,
			complaints=$5, chronic_diseases=$6, vitals=$7, diagnosis=$8,
			tests=$9, medicines=$10, general_advice=$11, surgery_advice=$12,
			follow_up=$13, updated_at=$14
		WHERE id = $1`,
		p.ID, p.PatientID, p.PatientSnapshot, p.DoctorInfo,
		p.Complaints, p.ChronicDiseases, p.Vitals, p.Diagnosis,
		p.Tests, p.Medicines, p.GeneralAdvice, p.SurgeryAdvice,
		p.FollowUp, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM prescription WHERE id = $1`, id)
	return err
}

func (r *pgRepo) DeleteByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM prescription WHERE patient_id = $1`, patientID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *pgRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+prescriptionCols+` FROM prescription
		WHERE patient_id = $1
		ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPrescriptions(rows)
}

func (r *pgRepo) ListAll(ctx context.Context) ([]*Prescription, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+prescriptionCols+` FROM prescription ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPrescriptions(rows)
}

func collectPrescriptions(rows pgx.Rows) ([]*Prescription, error) {
	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
