package store

// PagerState es el estado nombrado del cursor de paginación. Con estados
// explícitos es imposible representar "cargando inicial" y "cargando más"
// a la vez.
type PagerState int

const (
	PagerIdle PagerState = iota
	PagerLoadingInitial
	PagerLoadingMore
	PagerErrored
)

func (s PagerState) String() string {
	switch s {
	case PagerIdle:
		return "idle"
	case PagerLoadingInitial:
		return "loading-initial"
	case PagerLoadingMore:
		return "loading-more"
	case PagerErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Pager mantiene el cursor de paginación de un recurso listado por el
// servidor. No es seguro para concurrencia por sí mismo: lo posee el store
// que lo usa bajo su propio lock.
type Pager struct {
	page    int
	size    int
	hasMore bool
	state   PagerState
}

const defaultPageSize = 25

func NewPager(pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Pager{
		page:    1,
		size:    pageSize,
		hasMore: true,
		state:   PagerIdle,
	}
}

func (p *Pager) Page() int         { return p.page }
func (p *Pager) PageSize() int     { return p.size }
func (p *Pager) HasMore() bool     { return p.hasMore }
func (p *Pager) State() PagerState { return p.state }

func (p *Pager) busy() bool {
	return p.state == PagerLoadingInitial || p.state == PagerLoadingMore
}

// Begin decide si procede un fetch de la página dada. Sin force, se omite
// cuando ya hay un fetch en vuelo o cuando se pide una página posterior y
// no queda más por cargar. Un fetch forzado pasa por encima de ambas
// compuertas y no toca los flags, para no corromper el cursor que usa la
// carga incremental.
func (p *Pager) Begin(page int, force bool) bool {
	if page < 1 {
		return false
	}
	if force {
		return true
	}
	if p.busy() {
		return false
	}
	if page > 1 && !p.hasMore {
		return false
	}
	if page == 1 {
		p.state = PagerLoadingInitial
	} else {
		p.state = PagerLoadingMore
	}
	return true
}

// Finish cierra el fetch iniciado por Begin. Los flags de carga se limpian
// siempre, incluso en error, para que la UI nunca quede colgada en estado
// de carga. Solo un fetch no forzado avanza el cursor.
func (p *Pager) Finish(page, returned int, force bool, err error) {
	if force {
		return
	}
	if err != nil {
		p.state = PagerErrored
		return
	}
	p.hasMore = returned == p.size
	p.page = page
	p.state = PagerIdle
}
