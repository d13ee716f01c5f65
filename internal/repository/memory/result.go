package memory

import (
	"context"
	"sort"

	"lab-service/internal/domain/result"

	"github.com/google/uuid"
)

type resultRepo repos

func (r resultRepo) Create(ctx context.Context, input result.CreateResultInput) (*result.ProjectResult, error) {
	st, release := r.acc.write()
	defer release()

	res := result.ProjectResult{
		ID:              uuid.New(),
		ProjectID:       input.ProjectID,
		UploadedBy:      input.UploadedBy,
		FileName:        input.FileName,
		FileURL:         input.FileURL,
		FileType:        input.FileType,
		ObjectKey:       input.ObjectKey,
		SizeBytes:       input.SizeBytes,
		IsClientVisible: input.IsClientVisible,
		UploadedAt:      st.tick(r.acc.clock()),
	}
	st.results = append(st.results, res)
	return &res, nil
}

func (r resultRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*result.ProjectResult, error) {
	st, release := r.acc.read()
	defer release()

	var out []*result.ProjectResult
	for _, res := range st.results {
		if res.ProjectID == projectID {
			res := res
			out = append(out, &res)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}
