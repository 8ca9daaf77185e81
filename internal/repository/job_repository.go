package repository

import (
	"context"

	"dispatch-service/internal/model"
	"dispatch-service/internal/rowstore"
)

type JobRepository struct {
	store rowstore.Store
}

func NewJobRepository(store rowstore.Store) *JobRepository {
	return &JobRepository{store: store}
}

func (r *JobRepository) Create(ctx context.Context, job *model.Job) error {
	return r.store.Append(ctx, rowstore.TableJobs, encodeJob(job))
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (*model.Job, error) {
	rows, err := r.store.Rows(ctx, rowstore.TableJobs)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row["job_id"] == id {
			job := decodeJob(row)
			return &job, nil
		}
	}
	return nil, rowstore.ErrRowNotFound
}

// Mutate rewrites the job row from its freshest stored copy. All ledger and
// sync bookkeeping goes through here so derived fields are recomputed against
// what is actually persisted, not a stale snapshot.
func (r *JobRepository) Mutate(ctx context.Context, id string, fn func(*model.Job) error) (*model.Job, error) {
	var out *model.Job
	err := r.store.Update(ctx, rowstore.TableJobs, "job_id", id, func(row rowstore.Row) (rowstore.Row, error) {
		job := decodeJob(row)
		if err := fn(&job); err != nil {
			return nil, err
		}
		out = &job
		return encodeJob(&job), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *JobRepository) List(ctx context.Context) ([]model.Job, error) {
	rows, err := r.store.Rows(ctx, rowstore.TableJobs)
	if err != nil {
		return nil, err
	}
	jobs := make([]model.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, decodeJob(row))
	}
	return jobs, nil
}

func encodeJob(j *model.Job) rowstore.Row {
	return rowstore.Row{
		"job_id":                 j.ID,
		"job_name":               j.JobName,
		"customer_name":          j.CustomerName,
		"job_address":            j.JobAddress,
		"city":                   j.City,
		"state":                  j.State,
		"zip":                    j.Zip,
		"project_manager":        j.ProjectManager,
		"status":                 string(j.Status),
		"total_deliveries":       formatInt(j.TotalDeliveries),
		"total_pickups":          formatInt(j.TotalPickups),
		"total_returns":          formatInt(j.TotalReturns),
		"total_material_charged": formatFloat(j.TotalMaterialCharged),
		"total_material_cost":    formatFloat(j.TotalMaterialCost),
		"material_profit":        formatFloat(j.MaterialProfit),
		"ticket_ids":             encodeList(j.TicketIDs),
		"billing_ids":            encodeList(j.BillingIDs),
		"invoice_ids":            encodeList(j.InvoiceIDs),
		"photo_ids":              encodeList(j.PhotoIDs),
		"jobnimbus_id":           j.JobNimbusID,
		"synced_to_jobnimbus":    formatBool(j.SyncedToJobNimbus),
		"last_jobnimbus_sync":    formatTimePtr(j.LastJobNimbusSync),
		"created_at":             formatTime(j.CreatedAt),
		"updated_at":             formatTime(j.UpdatedAt),
	}
}

func decodeJob(row rowstore.Row) model.Job {
	return model.Job{
		ID:                   row["job_id"],
		JobName:              row["job_name"],
		CustomerName:         row["customer_name"],
		JobAddress:           row["job_address"],
		City:                 row["city"],
		State:                row["state"],
		Zip:                  row["zip"],
		ProjectManager:       row["project_manager"],
		Status:               model.JobStatus(row["status"]),
		TotalDeliveries:      parseInt(row["total_deliveries"]),
		TotalPickups:         parseInt(row["total_pickups"]),
		TotalReturns:         parseInt(row["total_returns"]),
		TotalMaterialCharged: parseFloat(row["total_material_charged"]),
		TotalMaterialCost:    parseFloat(row["total_material_cost"]),
		MaterialProfit:       parseFloat(row["material_profit"]),
		TicketIDs:            decodeStringList(row["ticket_ids"]),
		BillingIDs:           decodeStringList(row["billing_ids"]),
		InvoiceIDs:           decodeStringList(row["invoice_ids"]),
		PhotoIDs:             decodeStringList(row["photo_ids"]),
		JobNimbusID:          row["jobnimbus_id"],
		SyncedToJobNimbus:    parseBool(row["synced_to_jobnimbus"]),
		LastJobNimbusSync:    parseTimePtr(row["last_jobnimbus_sync"]),
		CreatedAt:            parseTime(row["created_at"]),
		UpdatedAt:            parseTime(row["updated_at"]),
	}
}
