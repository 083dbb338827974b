package cli

import (
	"context"
	"log"

	"github.com/mpodriezov/boardpack/internal/common"
)

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		log.Printf("Login unsuccessfull: %s", err.Error())
		return err
	}

	a.user = user
	a.setMode(ModeOnline)
	log.Printf("Login successfull (%s, role %s)", user.Email, user.Role)
	return nil
}

func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fullName, err := GetSimpleText(a.reader, "Enter full name", a.out)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	role, err := GetSimpleText(a.reader, "Enter role (applicant or broker)", a.out)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.api.Register(ctx, email, fullName, role, string(password)); err != nil {
		log.Printf("Registration unsuccessfull: %s", err.Error())
		return err
	}

	log.Println("Registration successfull, you can now login")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		log.Printf("Logout error: %s", err.Error())
	}
	a.user = nil
	log.Println("Logged out")
	return nil
}
