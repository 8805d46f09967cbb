package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/jobtrackr/jobtrackr/app/models"
	"github.com/jobtrackr/jobtrackr/app/repository"
	"github.com/jobtrackr/jobtrackr/internal/pkg/resumestore"
	"github.com/jobtrackr/jobtrackr/internal/pkg/usercontext"
)

// HandleResumeUpload stores a resume file and its metadata. The first
// resume a user uploads becomes the master automatically.
func HandleResumeUpload(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "a resume file is required")
	}

	cfg, err := resumestore.LoadConfig()
	if err != nil || !cfg.IsEnabled() {
		return internalError(c, "resume storage is not configured")
	}
	store, err := resumestore.NewStore(cfg)
	if err != nil {
		log.Printf("resume: store init failed: %v", err)
		return internalError(c, "resume storage is unavailable")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "could not read the uploaded file")
	}
	defer file.Close()

	stored, err := store.Upload(c.Context(), fileHeader.Filename, file)
	if err != nil {
		return badRequest(c, err.Error())
	}

	repo := repository.GetGlobalFactory().GetResumeRepository()
	existing, _ := repo.GetByUserID(userID)

	resume := &models.Resume{
		UserID:      userID,
		Name:        fileHeader.Filename,
		FileKey:     stored.ObjectKey,
		FileURL:     stored.FileURL,
		ContentType: stored.ContentType,
		SizeBytes:   stored.Size,
		IsMaster:    len(existing) == 0,
		IsActive:    true,
	}
	if err := repo.Create(resume); err != nil {
		// Best effort cleanup of the orphaned object.
		_ = store.Delete(c.Context(), stored.ObjectKey)
		return internalError(c, "could not save the resume")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"resume": resume})
}

// HandleResumeList returns the user's active resumes.
func HandleResumeList(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	resumes, err := repository.GetGlobalFactory().GetResumeRepository().GetByUserID(userID)
	if err != nil {
		return internalError(c, "could not load resumes")
	}
	return c.JSON(fiber.Map{"resumes": resumes})
}

// HandleResumeSetMaster marks one resume as the master used for ATS
// submissions.
func HandleResumeSetMaster(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid resume id")
	}

	repo := repository.GetGlobalFactory().GetResumeRepository()
	if err := repo.SetMaster(userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "resume not found")
		}
		return internalError(c, "could not update the master resume")
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleResumeDownload streams the stored resume file.
func HandleResumeDownload(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid resume id")
	}

	repo := repository.GetGlobalFactory().GetResumeRepository()
	resume, err := repo.GetByIDForUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "resume not found")
		}
		return internalError(c, "could not load the resume")
	}

	cfg, err := resumestore.LoadConfig()
	if err != nil || !cfg.IsEnabled() {
		return internalError(c, "resume storage is not configured")
	}
	store, err := resumestore.NewStore(cfg)
	if err != nil {
		log.Printf("resume: store init failed: %v", err)
		return internalError(c, "resume storage is unavailable")
	}

	body, err := store.Download(c.Context(), resume.FileKey)
	if err != nil {
		log.Printf("resume: download object %s failed: %v", resume.FileKey, err)
		return internalError(c, "could not download the resume")
	}

	c.Set(fiber.HeaderContentType, resume.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+resume.Name+`"`)
	return c.SendStream(body)
}

// HandleResumeDelete removes a resume row and its stored file.
func HandleResumeDelete(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid resume id")
	}

	repo := repository.GetGlobalFactory().GetResumeRepository()
	resume, err := repo.GetByIDForUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "resume not found")
		}
		return internalError(c, "could not load the resume")
	}

	if cfg, err := resumestore.LoadConfig(); err == nil && cfg.IsEnabled() {
		if store, err := resumestore.NewStore(cfg); err == nil {
			if err := store.Delete(c.Context(), resume.FileKey); err != nil {
				log.Printf("resume: delete object %s failed: %v", resume.FileKey, err)
			}
		}
	}
	if err := repo.Delete(resume.ID); err != nil {
		return internalError(c, "could not delete the resume")
	}
	return c.JSON(fiber.Map{"success": true})
}
