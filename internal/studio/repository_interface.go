package studio

import "context"

type Repository interface {
	CreateStudio(ctx context.Context, s *Studio) (*Studio, error)
	GetAllStudios(ctx context.Context) ([]Studio, error)
	GetStudioByID(ctx context.Context, id int) (*Studio, error)
	CreateInstructor(ctx context.Context, in *Instructor) (*Instructor, error)
	GetInstructorsByStudio(ctx context.Context, studioID int) ([]Instructor, error)
}
