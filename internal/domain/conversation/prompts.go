package conversation

import (
	"fmt"
	"time"
)

var (
	weekdaysES = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
	monthsES   = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
		"agosto", "septiembre", "octubre", "noviembre", "diciembre"}
)

// ExtractionPrompt asks the assistant to summarize the conversation as JSON.
const ExtractionPrompt = `Analiza toda esta conversación y genera un JSON con la siguiente estructura exacta:
{
  "reserva_fecha": "YYYY-MM-DD",
  "reserva_hora": "HH:MM",
  "reserva_invitados": "número de personas",
  "reserva_nombre": "nombre del cliente",
  "reserva_telefono": "número de teléfono",
  "solicitudes_especiales": "cualquier preferencia mencionada"
}

Rellena cada campo con la información de la conversación. Los campos obligatorios son fecha, hora, invitados, nombre y teléfono. Si falta alguno, usa cadena vacía.
IMPORTANTE: NO INCLUYAS NINGÚN TEXTO EXPLICATIVO, SOLO EL JSON.`

// ReaskPrompt is injected when extraction fails so the assistant asks again
// for every field.
const ReaskPrompt = `No se pudieron extraer los datos de la reserva. Pide al cliente que confirme de nuevo, de forma explícita, los seis datos: fecha (YYYY-MM-DD), hora (HH:MM), número de invitados, nombre, teléfono y solicitudes especiales.`

// DateContext tells the assistant what "today" is in the restaurant's timezone.
func DateContext(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	t := now.In(loc)
	long := fmt.Sprintf("%s, %d de %s de %d, %s %s",
		weekdaysES[t.Weekday()], t.Day(), monthsES[t.Month()-1], t.Year(), t.Format("15:04:05"), t.Format("MST"))
	return fmt.Sprintf(`La fecha actual en horario %s es: %s.
Para tus cálculos internos: date=%s, time=%s.
Por favor, usa esta información para verificar la disponibilidad y confirmar que las reservas no estén en el pasado.`,
		loc.String(), long, t.Format("2006-01-02"), t.Format("15:04:05"))
}

func Greeting(assistantName, restaurant string) string {
	return fmt.Sprintf("¡Hola! Soy %s, el agente virtual del %s. ¿En qué puedo ayudarte?", assistantName, restaurant)
}

func Farewell(restaurant string) string {
	return fmt.Sprintf("¡Hasta luego! Gracias por contactar al %s.", restaurant)
}
