package fakeapi

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/jaskaranSM/pdrive/types"
)

// ETag is the tag the fake returns for a part payload.
func ETag(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Server) UploadHandler(ctx *fiber.Ctx) error {
	if s.hooks.UploadStatus != 0 {
		return ctx.Status(s.hooks.UploadStatus).SendString(s.hooks.UploadBody)
	}
	name := fiberutils.CopyString(ctx.Params("filename"))
	if name == "" {
		return ctx.Status(fiber.StatusBadRequest).SendString("provide filename in path")
	}
	location := "files/" + name

	s.mu.Lock()
	s.objects[location] = append([]byte(nil), ctx.Body()...)
	s.mu.Unlock()
	return ctx.SendString(location)
}

func (s *Server) InitHandler(ctx *fiber.Ctx) error {
	if s.hooks.InitStatus != 0 {
		return ctx.Status(s.hooks.InitStatus).SendString(s.hooks.InitBody)
	}
	if s.hooks.InitBody != "" {
		return ctx.SendString(s.hooks.InitBody)
	}
	key := fiberutils.CopyString(ctx.Params("key"))
	uploadID := uuid.NewString()

	s.mu.Lock()
	s.sessions[uploadID] = &session{
		key:   key,
		parts: make(map[int][]byte),
		etags: make(map[int]string),
	}
	s.mu.Unlock()

	return ctx.JSON(types.Multipart{Key: key, UploadID: uploadID})
}

func (s *Server) PutPartHandler(ctx *fiber.Ctx) error {
	partNumber, err := strconv.Atoi(ctx.Query("partNumber"))
	if err != nil || partNumber < 1 {
		return ctx.Status(fiber.StatusBadRequest).SendString("invalid partNumber")
	}
	if s.hooks.PartDelay != nil {
		time.Sleep(s.hooks.PartDelay(partNumber))
	}
	if s.hooks.PartStatus != nil {
		if status := s.hooks.PartStatus(partNumber); status != 0 {
			return ctx.Status(status).SendString(fmt.Sprintf("part %d rejected", partNumber))
		}
	}

	sess, ok := s.session(ctx)
	if !ok {
		return ctx.Status(fiber.StatusNotFound).SendString("upload not found")
	}
	data := append([]byte(nil), ctx.Body()...)
	etag := ETag(data)

	confirmed := partNumber
	if s.hooks.PartNumber != nil {
		confirmed = s.hooks.PartNumber(partNumber)
	}

	s.mu.Lock()
	sess.parts[partNumber] = data
	sess.etags[partNumber] = etag
	s.partOrder = append(s.partOrder, partNumber)
	s.mu.Unlock()

	return ctx.JSON(types.Part{PartNumber: confirmed, ETag: etag})
}

func (s *Server) FinishHandler(ctx *fiber.Ctx) error {
	var parts []types.Part
	if err := json.Unmarshal(ctx.Body(), &parts); err != nil {
		return ctx.Status(fiber.StatusBadRequest).SendString(err.Error())
	}

	s.mu.Lock()
	s.completions = append(s.completions, parts)
	s.mu.Unlock()

	if s.hooks.FinishStatus != 0 {
		return ctx.Status(s.hooks.FinishStatus).SendString("finish rejected")
	}

	sess, ok := s.session(ctx)
	if !ok {
		return ctx.Status(fiber.StatusNotFound).SendString("upload not found")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(parts) != len(sess.parts) {
		return ctx.Status(fiber.StatusBadRequest).
			SendString(fmt.Sprintf("got %d parts, uploaded %d", len(parts), len(sess.parts)))
	}
	sorted := append([]types.Part(nil), parts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	var object []byte
	for i, part := range sorted {
		if part.PartNumber != i+1 || sess.etags[part.PartNumber] != part.ETag {
			return ctx.Status(fiber.StatusBadRequest).
				SendString(fmt.Sprintf("part %d does not match an uploaded part", part.PartNumber))
		}
		object = append(object, sess.parts[part.PartNumber]...)
	}

	location := "files/" + sess.key
	s.objects[location] = object
	delete(s.sessions, fiberutils.CopyString(ctx.Params("uploadId")))
	return ctx.SendString(location)
}

func (s *Server) session(ctx *fiber.Ctx) (*session, bool) {
	uploadID := ctx.Params("uploadId")
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[uploadID]
	if !ok || sess.key != ctx.Params("key") {
		return nil, false
	}
	return sess, true
}
