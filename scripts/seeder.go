package main

import (
	"log"
	"time"

	"github.com/echomail/echomail/config"
	"github.com/echomail/echomail/utils"
)

func main() {
	config.InitConfig()
	config.InitDB()
	defer config.CloseDB()

	seedUsers()
	seedContacts()
	seedTemplates()
}

func seedUsers() {
	users := []struct {
		Email    string
		Password string
	}{
		{Email: "demo@echomail.dev", Password: "demo-password-1"},
		{Email: "ops@echomail.dev", Password: "demo-password-2"},
	}

	for _, u := range users {
		hashed, err := utils.HashPassword(u.Password)
		if err != nil {
			log.Fatalf("Failed to hash password for %s: %v", u.Email, err)
		}

		_, err = config.DB.Exec(
			"INSERT INTO users (email, password, last_login, created_at, updated_at) VALUES (?, ?, ?, NOW(), NOW())",
			u.Email, hashed, time.Now(),
		)
		if err != nil {
			log.Fatalf("Failed to seed user %s: %v", u.Email, err)
		}
		log.Printf("Seeded user: %s", u.Email)
	}
}

func seedContacts() {
	contacts := []struct {
		Email  string
		Name   string
		Fields string
	}{
		{Email: "ann@example.com", Name: "Ann", Fields: `{"Company":"Acme","City":"Austin"}`},
		{Email: "bob@example.com", Name: "Bob", Fields: `{"Company":"Globex","City":"Berlin"}`},
		{Email: "carol@example.com", Name: "Carol", Fields: `{"Company":"Initech"}`},
	}

	for _, c := range contacts {
		_, err := config.DB.Exec(
			"INSERT INTO contacts (user_email, email, name, fields) VALUES (?, ?, ?, ?)",
			"demo@echomail.dev", c.Email, c.Name, c.Fields,
		)
		if err != nil {
			log.Fatalf("Failed to seed contact %s: %v", c.Email, err)
		}
		log.Printf("Seeded contact: %s", c.Email)
	}
}

func seedTemplates() {
	templates := []struct {
		Name    string
		Subject string
		Body    string
	}{
		{
			Name:    "Welcome",
			Subject: "Welcome aboard, {{Name}}",
			Body:    "<p>Hi {{Name}},</p><p>Great to have {{Company}} with us.</p>",
		},
		{
			Name:    "Monthly update",
			Subject: "News for {{Company}}",
			Body:    "<h2>What changed this month</h2><p>Hello {{Name}}, here is the rundown.</p>",
		},
	}

	for _, t := range templates {
		_, err := config.DB.Exec(
			"INSERT INTO templates (user_email, name, subject, body) VALUES (?, ?, ?, ?)",
			"demo@echomail.dev", t.Name, t.Subject, t.Body,
		)
		if err != nil {
			log.Fatalf("Failed to seed template %s: %v", t.Name, err)
		}
		log.Printf("Seeded template: %s", t.Name)
	}
}
