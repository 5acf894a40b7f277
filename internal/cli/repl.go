package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/andremillet/prescreveai/internal/config"
	"github.com/andremillet/prescreveai/internal/render"
	"github.com/andremillet/prescreveai/internal/shorthand"
)

const separator = "--------------------"

// REPL is the interactive prompt. It remembers the last successful parse
// so that "imprimir" can render it.
type REPL struct {
	in       io.Reader
	out      io.Writer
	style    styles
	profile  *config.Profile
	renderer render.Renderer
	now      func() time.Time

	last []shorthand.Record
}

// NewREPL builds a prompt reading from in and writing to out.
func NewREPL(in io.Reader, out io.Writer, profile *config.Profile, renderer render.Renderer) *REPL {
	if profile == nil {
		profile = &config.Profile{OutputDir: ".", DefaultTemplate: string(render.TemplateDefault)}
	}
	if renderer == nil {
		renderer = render.NewPDFRenderer()
	}
	return &REPL{
		in:       in,
		out:      out,
		style:    newStyles(out),
		profile:  profile,
		renderer: renderer,
		now:      time.Now,
	}
}

// Run reads lines until exit, quit or EOF.
func (r *REPL) Run() error {
	r.banner()

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			fmt.Fprintln(r.out, "\nSaindo...")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		command := strings.ToLower(line)
		switch {
		case line == "":
		case command == "exit" || command == "quit":
			fmt.Fprintln(r.out, "Saindo...")
			return nil
		case strings.HasPrefix(command, "imprimir"):
			r.print(strings.Fields(command)[1:])
		default:
			r.parse(line)
		}
	}
}

func (r *REPL) banner() {
	fmt.Fprintln(r.out, r.style.title.Render("Bem-vindo ao PrescreveAI CLI!"))
	fmt.Fprintln(r.out, "Digite a linha de medicação (ex: !MED AMITRIPTILINA 25MG NOITE; ALPRAZOLAM 2MG NOITE;)")
	fmt.Fprintln(r.out, r.style.hint.Render("Digite 'imprimir [template]' para gerar um PDF da última prescrição. Templates: memed (padrão), simple."))
	fmt.Fprintln(r.out, r.style.hint.Render("Digite 'exit' ou 'quit' para sair."))
}

func (r *REPL) parse(line string) {
	records, err := shorthand.Parse(line)
	if err != nil {
		fmt.Fprintln(r.out, r.style.err.Render("Erro: "+err.Error()))
		return
	}
	r.last = records

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.style.section.Render("--- Saída Formatada ---"))
	for i, rec := range records {
		fmt.Fprintf(r.out, "%d. %s\n", i+1, shorthand.Format(rec))
		fmt.Fprintln(r.out, separator)
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.style.section.Render("--- Saída JSON ---"))
	if err := writeJSON(r.out, shorthand.NewResult(records, nil)); err != nil {
		fmt.Fprintln(r.out, r.style.err.Render("Erro: "+err.Error()))
	}
	fmt.Fprintln(r.out, separator)
	fmt.Fprintln(r.out)
}

// print renders the last prescription. An unknown template falls back to
// the default layout with a warning.
func (r *REPL) print(args []string) {
	if len(r.last) == 0 {
		fmt.Fprintln(r.out, r.style.warning.Render("Nenhuma medicação processada para imprimir. Por favor, insira uma prescrição primeiro."))
		return
	}

	name := r.profile.DefaultTemplate
	if len(args) > 0 {
		name = args[0]
	}
	tmpl, err := render.ParseTemplate(name)
	if errors.Is(err, render.ErrUnknownTemplate) {
		fmt.Fprintln(r.out, r.style.warning.Render(fmt.Sprintf("Template desconhecido: %s. Usando o template padrão (%s).", name, render.TemplateDefault)))
		tmpl = render.TemplateDefault
	}

	if err := r.profile.Emitter.Validate(); err != nil {
		fmt.Fprintln(r.out, r.style.warning.Render("Aviso: perfil sem emitente completo; configure nome e crm em "+config.DefaultProfilePath()))
	}

	path := filepath.Join(r.profile.OutputDir, tmpl.Filename())
	doc := render.Document{
		Medications: r.last,
		Emitter:     r.profile.Emitter,
		Clinic:      r.profile.ClinicName,
		IssuedAt:    r.now(),
	}
	if err := render.RenderFile(r.renderer, path, tmpl, doc); err != nil {
		fmt.Fprintln(r.out, r.style.err.Render("Erro: "+err.Error()))
		return
	}
	fmt.Fprintln(r.out, r.style.success.Render("PDF gerado com sucesso: "+path))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
