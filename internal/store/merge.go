package store

import "chat-sync/internal/domain"

// MergeSessions combina una página recién traída con la colección ya
// cargada sin duplicar ni perder entradas. El dato fresco siempre gana en
// conflicto de id.
//
// El servidor pagina de más nuevo a más viejo: la página 1 puede cambiar
// entre llamadas (sesiones nuevas entrando) mientras que las páginas
// posteriores son comparativamente estables. Por eso la página 1 reordena
// la cabeza de la lista y las páginas incrementales extienden la cola.
//
// Supuesto conocido sin contrato visible: si una sesión creada después de
// la carga inicial envejece fuera de la página 1 antes del próximo
// refresh completo, pueden aparecer entradas fuera de orden.
func MergeSessions(existing, fresh []domain.Session, page int) []domain.Session {
	inFresh := make(map[string]struct{}, len(fresh))
	deduped := make([]domain.Session, 0, len(fresh))
	for _, s := range fresh {
		if _, ok := inFresh[s.ID]; ok {
			continue
		}
		inFresh[s.ID] = struct{}{}
		deduped = append(deduped, s)
	}

	rest := make([]domain.Session, 0, len(existing))
	for _, s := range existing {
		if _, ok := inFresh[s.ID]; ok {
			continue
		}
		rest = append(rest, s)
	}

	if page == 1 {
		return append(deduped, rest...)
	}
	return append(rest, deduped...)
}
