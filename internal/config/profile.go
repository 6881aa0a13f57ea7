package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile - данные владельца портфолио, которые подставляются в ответы ассистента.
type Profile struct {
	Name            string `yaml:"name"`
	Title           string `yaml:"title"`
	Email           string `yaml:"email"`
	LinkedIn        string `yaml:"linkedin"`
	Website         string `yaml:"website"`
	YearsExperience string `yaml:"years_experience"`
	ResponseTime    string `yaml:"response_time"`
}

// DefaultProfile используется, когда файл профиля отсутствует.
func DefaultProfile() Profile {
	return Profile{
		Name:            "Avishek Giri",
		Title:           "Full Stack MERN Developer",
		Email:           "hello@example.com",
		LinkedIn:        "https://www.linkedin.com/in/example",
		Website:         "https://example.com",
		YearsExperience: "2+",
		ResponseTime:    "24-48 hours",
	}
}

// LoadProfile читает YAML-профиль. Отсутствующий файл не ошибка: возвращаются значения по умолчанию.
// Незаполненные поля тоже берутся из значений по умолчанию.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("чтение профиля %s: %w", path, err)
	}

	var fromFile Profile
	if err := yaml.Unmarshal(raw, &fromFile); err != nil {
		return p, fmt.Errorf("разбор профиля %s: %w", path, err)
	}
	p.merge(fromFile)
	return p, nil
}

// FirstName - первое слово имени, им ассистент называет владельца в ответах.
func (p Profile) FirstName() string {
	if fields := strings.Fields(p.Name); len(fields) > 0 {
		return fields[0]
	}
	return p.Name
}

func (p *Profile) merge(o Profile) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.Name, o.Name)
	set(&p.Title, o.Title)
	set(&p.Email, o.Email)
	set(&p.LinkedIn, o.LinkedIn)
	set(&p.Website, o.Website)
	set(&p.YearsExperience, o.YearsExperience)
	set(&p.ResponseTime, o.ResponseTime)
}
